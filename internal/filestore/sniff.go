package filestore

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/webp"
)

// ErrUnsupportedImage is returned for attachments that do not decode as a
// supported image.
var ErrUnsupportedImage = errors.New("attachment is not a supported image")

// DetectImageType returns the decoded image format: png, jpeg, gif or webp.
func DetectImageType(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", ErrUnsupportedImage
	}
	return format, nil
}

// NormalizeFileType turns a declared type or extension into a tag such as
// "png". "jpg" is folded into "jpeg".
func NormalizeFileType(declared string) string {
	t := strings.ToLower(strings.TrimSpace(declared))
	t = strings.TrimPrefix(t, ".")
	if i := strings.LastIndex(t, "/"); i >= 0 {
		t = t[i+1:]
	}
	if t == "jpg" {
		return "jpeg"
	}
	return t
}

// ContentType maps a type tag to its MIME type.
func ContentType(fileType string) string {
	if fileType == "" {
		return "application/octet-stream"
	}
	return "image/" + NormalizeFileType(fileType)
}
