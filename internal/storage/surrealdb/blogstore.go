package surrealdb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/interfaces"
	"github.com/dmaguire/rampart/internal/models"
)

// BlogStore implements interfaces.BlogStore on SurrealDB.
type BlogStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

func NewBlogStore(db *surrealdb.DB, logger *common.Logger) *BlogStore {
	return &BlogStore{
		db:     db,
		logger: logger,
	}
}

func (s *BlogStore) GetPost(ctx context.Context, postID string) (*models.BlogPost, error) {
	post, err := surrealdb.Select[models.BlogPost](ctx, s.db, surrealmodels.NewRecordID("post", postID))
	if err != nil {
		return nil, fmt.Errorf("failed to select post: %w", err)
	}
	if post == nil {
		return nil, errors.New("post not found")
	}
	return post, nil
}

func (s *BlogStore) GetPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	sql := "SELECT * FROM post WHERE slug = $slug LIMIT 1"
	vars := map[string]any{"slug": slug}

	results, err := surrealdb.Query[[]models.BlogPost](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to query post by slug: %w", err)
	}
	if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
		return &(*results)[0].Result[0], nil
	}
	return nil, errors.New("post not found")
}

func (s *BlogStore) SavePost(ctx context.Context, post *models.BlogPost) error {
	post.ModifiedAt = time.Now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = post.ModifiedAt
	}

	sql := "UPSERT type::record('post', $id) CONTENT $post"
	vars := map[string]any{"id": post.PostID, "post": post}

	for attempt := 1; attempt <= 3; attempt++ {
		_, err := surrealdb.Query[[]models.BlogPost](ctx, s.db, sql, vars)
		if err == nil {
			return nil
		}
		if attempt == 3 {
			return fmt.Errorf("failed to save post after retries: %w", err)
		}
	}
	return nil
}

func (s *BlogStore) DeletePost(ctx context.Context, postID string) error {
	_, err := surrealdb.Delete[models.BlogPost](ctx, s.db, surrealmodels.NewRecordID("post", postID))
	if err != nil && !isNotFoundError(err) {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return nil
}

func (s *BlogStore) ListPosts(ctx context.Context, opts interfaces.PostListOptions) ([]*models.BlogPost, error) {
	sql := "SELECT * FROM post WHERE 1 = 1"
	vars := map[string]any{}

	if opts.AuthorID != "" {
		sql += " AND author_id = $author_id"
		vars["author_id"] = opts.AuthorID
	}
	if opts.Tag != "" {
		sql += " AND $tag IN tags"
		vars["tag"] = opts.Tag
	}
	if opts.PublishedOnly {
		sql += " AND published = true"
	}
	sql += " ORDER BY created_at DESC"
	if opts.Limit > 0 {
		sql += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	results, err := surrealdb.Query[[]models.BlogPost](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	if results != nil && len(*results) > 0 {
		var mapped []*models.BlogPost
		for i := range (*results)[0].Result {
			mapped = append(mapped, &(*results)[0].Result[i])
		}
		return mapped, nil
	}
	return nil, nil
}

// Compile-time check
var _ interfaces.BlogStore = (*BlogStore)(nil)
