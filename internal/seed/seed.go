package seed

import (
	"context"
	"fmt"
	"log/slog"

	"mungboard/internal/cache"
	"mungboard/internal/middleware"
	"mungboard/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Summary counts what a run created.
type Summary struct {
	Users    int
	Posts    int
	Comments int
}

// Seeder fills a database according to a preset.
type Seeder struct {
	db *gorm.DB
}

// NewSeeder binds a seeder to db.
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// ClearAll deletes every comment, post and user.
func (s *Seeder) ClearAll(ctx context.Context) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Comment{}, &models.Post{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	cache.InvalidatePostLists(ctx)
	middleware.Logger.Info("Seed data cleared")
	return nil
}

// Run creates the users, posts and threaded comments the preset asks for in
// one transaction.
func (s *Seeder) Run(ctx context.Context, p *Preset) (*Summary, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(p.UserPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}

	f := NewFactory(p.RandomSeed, p.MaxDays)
	sum := &Summary{}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := make([]*models.User, 0, p.Users)
		for i := 1; i <= p.Users; i++ {
			users = append(users, f.BuildUser(i, string(hash)))
		}
		if err := tx.Create(&users).Error; err != nil {
			return fmt.Errorf("create users: %w", err)
		}
		sum.Users = len(users)

		for _, u := range users {
			for range p.PostsPerUser {
				post := f.BuildPost(u, p.Categories, p.PostPassword)
				if err := tx.Create(post).Error; err != nil {
					return fmt.Errorf("create post: %w", err)
				}
				sum.Posts++

				n, err := s.createThread(tx, f, post, users, p)
				if err != nil {
					return err
				}
				sum.Comments += n
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	cache.InvalidatePostLists(ctx)
	middleware.Logger.Info("Seed data created",
		slog.String("preset", p.Name),
		slog.Int("users", sum.Users),
		slog.Int("posts", sum.Posts),
		slog.Int("comments", sum.Comments),
	)
	return sum, nil
}

// createThread adds comments to post; each may reply to an earlier comment
// on the same post.
func (s *Seeder) createThread(tx *gorm.DB, f *Factory, post *models.Post, users []*models.User, p *Preset) (int, error) {
	var thread []*models.Comment
	for range p.CommentsPerPost {
		var parent *models.Comment
		if len(thread) > 0 && f.chance(p.ReplyRatio) {
			parent = thread[f.pick(len(thread))]
		}
		c := f.BuildComment(post, users[f.pick(len(users))], parent)
		if err := tx.Create(c).Error; err != nil {
			return 0, fmt.Errorf("create comment: %w", err)
		}
		thread = append(thread, c)
	}
	return len(thread), nil
}
