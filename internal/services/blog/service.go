// Package blog manages marketing-site articles.
package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/interfaces"
	"github.com/dmaguire/rampart/internal/models"
)

var (
	ErrPostNotFound = errors.New("post not found")
	ErrForbidden    = errors.New("not allowed to modify this post")
)

const excerptMaxWords = 60

// Service implements interfaces.BlogService.
type Service struct {
	storage interfaces.StorageManager
	gemini  interfaces.GeminiClient
	logger  *common.Logger
}

// NewService creates the blog service. The Gemini client may be nil; excerpt
// generation then falls back to truncation.
func NewService(storage interfaces.StorageManager, gemini interfaces.GeminiClient, logger *common.Logger) *Service {
	return &Service{storage: storage, gemini: gemini, logger: logger}
}

// GetPost retrieves a post by ID, falling back to slug lookup.
func (s *Service) GetPost(ctx context.Context, idOrSlug string) (*models.BlogPost, error) {
	store := s.storage.BlogStore()
	if post, err := store.GetPost(ctx, idOrSlug); err == nil {
		return post, nil
	}
	post, err := store.GetPostBySlug(ctx, idOrSlug)
	if err != nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *Service) ListPosts(ctx context.Context, opts interfaces.PostListOptions) ([]*models.BlogPost, error) {
	return s.storage.BlogStore().ListPosts(ctx, opts)
}

// SavePost creates or updates a post. Instructors may only edit their own;
// admins may edit anything. An empty excerpt is generated from the body.
func (s *Service) SavePost(ctx context.Context, actor *models.User, post *models.BlogPost) (*models.BlogPost, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	if strings.TrimSpace(post.Title) == "" {
		return nil, fmt.Errorf("post title is required")
	}

	store := s.storage.BlogStore()

	if post.PostID == "" {
		post.PostID = uuid.New().String()
		if post.AuthorID == "" {
			post.AuthorID = actor.UserID
		}
	} else {
		existing, err := store.GetPost(ctx, post.PostID)
		if err != nil {
			return nil, ErrPostNotFound
		}
		if actor.Role != models.RoleAdmin && existing.AuthorID != actor.UserID {
			return nil, ErrForbidden
		}
		post.AuthorID = existing.AuthorID
		post.CreatedAt = existing.CreatedAt
	}

	if post.Slug == "" {
		post.Slug = slugify(post.Title)
	}
	if strings.TrimSpace(post.Excerpt) == "" && strings.TrimSpace(post.Body) != "" {
		post.Excerpt = s.generateExcerpt(ctx, post.Body)
	}

	if err := store.SavePost(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to save post: %w", err)
	}
	return post, nil
}

func (s *Service) DeletePost(ctx context.Context, actor *models.User, postID string) error {
	if actor == nil {
		return ErrForbidden
	}
	store := s.storage.BlogStore()
	existing, err := store.GetPost(ctx, postID)
	if err != nil {
		return ErrPostNotFound
	}
	if actor.Role != models.RoleAdmin && existing.AuthorID != actor.UserID {
		return ErrForbidden
	}
	return store.DeletePost(ctx, postID)
}

// generateExcerpt summarizes the body via Gemini, falling back to a word
// truncation when the client is missing or the call fails.
func (s *Service) generateExcerpt(ctx context.Context, body string) string {
	if s.gemini != nil {
		excerpt, err := s.gemini.Summarize(ctx, body, excerptMaxWords)
		if err == nil && excerpt != "" {
			return excerpt
		}
		if err != nil {
			s.logger.Warn().Err(err).Msg("excerpt generation failed, using truncation")
		}
	}
	return truncateWords(body, excerptMaxWords)
}

// truncateWords returns the first n words of text with an ellipsis when
// anything was cut.
func truncateWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + "…"
}

func slugify(title string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash && b.Len() > 0 {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Compile-time check
var _ interfaces.BlogService = (*Service)(nil)
