// Package validation provides input validation for account fields.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	loginIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9\-]+(\.[a-zA-Z0-9\-]+)*\.[a-zA-Z]{2,}$`)
)

// ValidatePassword checks an account password. bcrypt ignores bytes past 72,
// so longer passwords are refused.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if len(password) > 72 {
		return fmt.Errorf("password must not exceed 72 bytes")
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("password must contain at least one letter and one digit")
	}
	return nil
}

// ValidateLoginID checks the sign-in name.
func ValidateLoginID(loginID string) error {
	if len(loginID) < 4 || len(loginID) > 20 {
		return fmt.Errorf("login ID must be 4 to 20 characters long")
	}
	if !loginIDRegex.MatchString(loginID) {
		return fmt.Errorf("login ID can only contain letters, numbers and underscores")
	}
	return nil
}

// ValidateNickname checks the display name shown next to posts and comments.
func ValidateNickname(nickname string) error {
	n := utf8.RuneCountInString(nickname)
	if n < 2 || n > 20 {
		return fmt.Errorf("nickname must be 2 to 20 characters long")
	}
	if strings.TrimSpace(nickname) != nickname || strings.ContainsAny(nickname, "\t\n\r") {
		return fmt.Errorf("nickname cannot start or end with whitespace")
	}
	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}
