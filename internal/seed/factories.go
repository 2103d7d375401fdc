package seed

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"mungboard/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

var nonLoginChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Factory builds board entities with fake but plausible content. It never
// touches the database.
type Factory struct {
	faker   *gofakeit.Faker
	maxDays int
	now     time.Time
}

// NewFactory creates a factory. A zero seed draws a random one.
func NewFactory(seed int64, maxDays int) *Factory {
	if maxDays <= 0 {
		maxDays = 90
	}
	return &Factory{faker: gofakeit.New(seed), maxDays: maxDays, now: time.Now()}
}

// BuildUser returns the n-th demo user. passwordHash is stored as is.
func (f *Factory) BuildUser(n int, passwordHash string) *models.User {
	login := nonLoginChars.ReplaceAllString(f.faker.Username(), "")
	if len(login) > 14 {
		login = login[:14]
	}
	login = fmt.Sprintf("%s_%d", strings.ToLower(login), n)

	pet, _ := json.Marshal(map[string]string{
		"name":  f.faker.PetName(),
		"breed": f.faker.Dog(),
	})

	birth := f.faker.DateRange(f.now.AddDate(-60, 0, 0), f.now.AddDate(-18, 0, 0))
	return &models.User{
		LoginID:  login,
		Name:     f.faker.Name(),
		Email:    fmt.Sprintf("user%d.%s", n, strings.ToLower(f.faker.Email())),
		Password: passwordHash,
		Phone:    f.faker.Phone(),
		Birth:    &birth,
		Gender:   f.faker.Gender(),
		Nickname: fmt.Sprintf("%s%d", f.faker.FirstName(), n),
		Role:     models.RoleUser,
		Address:  f.faker.City(),
		PetInfo:  string(pet),
	}
}

// BuildPost returns a post by user in one of categories, dated within the
// factory's window.
func (f *Factory) BuildPost(user *models.User, categories []string, password string) *models.Post {
	created := f.pastTime()
	title := f.faker.Sentence(5)
	if len(title) > 255 {
		title = title[:255]
	}
	return &models.Post{
		UserID:    user.ID,
		Title:     title,
		Content:   f.faker.Paragraph(1, 3, 5, "\n"),
		Category:  categories[f.faker.Number(0, len(categories)-1)],
		ViewCount: int64(f.faker.Number(0, 500)),
		Password:  password,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

// BuildComment returns a comment on post by user, replying to parent when set.
func (f *Factory) BuildComment(post *models.Post, user *models.User, parent *models.Comment) *models.Comment {
	c := &models.Comment{
		PostID:  post.ID,
		UserID:  user.ID,
		Content: f.faker.Sentence(f.faker.Number(3, 15)),
	}
	if parent != nil {
		c.ParentID = &parent.ID
	}
	return c
}

func (f *Factory) pick(n int) int {
	return f.faker.Number(0, n-1)
}

func (f *Factory) chance(p float64) bool {
	return f.faker.Float64Range(0, 1) < p
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.Number(0, f.maxDays*24*60)) * time.Minute
	return f.now.Add(-back)
}
