package service

import (
	"crypto/subtle"

	"mungboard/internal/models"
	"mungboard/internal/observability"
	"mungboard/internal/repository"
)

// PostPasswordGate authorizes post mutations by the post's shared secret.
// Session identity plays no part: whoever knows the password may edit.
type PostPasswordGate struct{}

// Allows compares supplied with the stored password byte for byte. An empty
// supplied password never matches.
func (PostPasswordGate) Allows(post *models.Post, supplied string) bool {
	if supplied == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(post.Password), []byte(supplied)) == 1
}

// Guard adapts the gate to run against the locked row inside a transaction.
func (g PostPasswordGate) Guard(supplied string) repository.PostGuard {
	return func(current *models.Post) error {
		if !g.Allows(current, supplied) {
			observability.AuthorizationFailures.WithLabelValues("password").Inc()
			return models.NewUnauthorizedError("Post password does not match")
		}
		return nil
	}
}

// CommentAuthorGate authorizes comment mutations by authoring identity.
type CommentAuthorGate struct{}

func (CommentAuthorGate) Allows(comment *models.Comment, who models.Identity) bool {
	return !who.Anonymous() && comment.UserID == who.UserID
}

func (g CommentAuthorGate) Guard(who models.Identity) repository.CommentGuard {
	return func(current *models.Comment) error {
		if !g.Allows(current, who) {
			observability.AuthorizationFailures.WithLabelValues("author").Inc()
			return models.NewUnauthorizedError("You can only change your own comments")
		}
		return nil
	}
}

func requireIdentity(who models.Identity) error {
	if who.Anonymous() {
		observability.AuthorizationFailures.WithLabelValues("anonymous").Inc()
		return models.NewUnauthorizedError("Login required")
	}
	return nil
}
