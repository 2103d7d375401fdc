// Package seed creates demo boards for development. It writes straight
// through gorm and is not meant for production data.
package seed

import (
	"errors"
	"fmt"
	"io"
	"os"

	"mungboard/internal/models"

	"gopkg.in/yaml.v3"
)

// Preset describes how much demo data to create.
type Preset struct {
	Name            string   `yaml:"name"`
	Users           int      `yaml:"users"`
	PostsPerUser    int      `yaml:"posts_per_user"`
	CommentsPerPost int      `yaml:"comments_per_post"`
	ReplyRatio      float64  `yaml:"reply_ratio"`
	Categories      []string `yaml:"categories"`
	UserPassword    string   `yaml:"user_password"`
	PostPassword    string   `yaml:"post_password"`
	MaxDays         int      `yaml:"max_days"`
	// RandomSeed makes a run reproducible when non-zero.
	RandomSeed int64 `yaml:"random_seed"`
}

// DefaultPreset is a small board suitable for local development.
func DefaultPreset() *Preset {
	p := &Preset{Name: "default", Users: 10, PostsPerUser: 3, CommentsPerPost: 4, ReplyRatio: 0.3}
	p.applyDefaults()
	return p
}

// LoadPreset decodes a YAML preset. Omitted fields fall back to defaults.
func LoadPreset(r io.Reader) (*Preset, error) {
	var p Preset
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode preset: %w", err)
	}
	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadPresetFile reads a preset from disk.
func LoadPresetFile(path string) (*Preset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open preset: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadPreset(f)
}

func (p *Preset) applyDefaults() {
	if p.Name == "" {
		p.Name = "custom"
	}
	if len(p.Categories) == 0 {
		p.Categories = []string{models.CategoryFree, models.CategoryQuestion, models.CategoryShow}
	}
	if p.UserPassword == "" {
		p.UserPassword = "password123"
	}
	if p.PostPassword == "" {
		p.PostPassword = "board1234"
	}
	if p.MaxDays <= 0 {
		p.MaxDays = 90
	}
}

// Validate rejects presets that cannot produce a usable board.
func (p *Preset) Validate() error {
	switch {
	case p.Users <= 0:
		return fmt.Errorf("preset %q: users must be positive", p.Name)
	case p.PostsPerUser < 0 || p.CommentsPerPost < 0:
		return fmt.Errorf("preset %q: counts must not be negative", p.Name)
	case p.ReplyRatio < 0 || p.ReplyRatio > 1:
		return fmt.Errorf("preset %q: reply_ratio must be within [0, 1]", p.Name)
	}
	return nil
}
