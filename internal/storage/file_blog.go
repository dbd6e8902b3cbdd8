package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/dmaguire/rampart/internal/interfaces"
	"github.com/dmaguire/rampart/internal/models"
)

// fileBlogStore implements interfaces.BlogStore over the content area.
type fileBlogStore struct {
	m *FileManager
}

func (s *fileBlogStore) GetPost(ctx context.Context, postID string) (*models.BlogPost, error) {
	var post models.BlogPost
	if err := readJSON(jsonPath(s.m.contentPath, "posts", postID), &post); err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *fileBlogStore) GetPostBySlug(ctx context.Context, slug string) (*models.BlogPost, error) {
	var found *models.BlogPost
	err := listJSON(filepath.Join(s.m.contentPath, "posts"), func(data []byte) error {
		var post models.BlogPost
		if err := json.Unmarshal(data, &post); err != nil {
			return nil
		}
		if post.Slug == slug {
			found = &post
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, errNotFound
	}
	return found, nil
}

func (s *fileBlogStore) SavePost(ctx context.Context, post *models.BlogPost) error {
	if post.PostID == "" {
		return fmt.Errorf("post ID is required")
	}
	post.ModifiedAt = time.Now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = post.ModifiedAt
	}
	return writeJSON(jsonPath(s.m.contentPath, "posts", post.PostID), post)
}

func (s *fileBlogStore) DeletePost(ctx context.Context, postID string) error {
	return removeIfExists(jsonPath(s.m.contentPath, "posts", postID))
}

func (s *fileBlogStore) ListPosts(ctx context.Context, opts interfaces.PostListOptions) ([]*models.BlogPost, error) {
	var posts []*models.BlogPost
	err := listJSON(filepath.Join(s.m.contentPath, "posts"), func(data []byte) error {
		var post models.BlogPost
		if err := json.Unmarshal(data, &post); err != nil {
			return nil
		}
		if opts.AuthorID != "" && post.AuthorID != opts.AuthorID {
			return nil
		}
		if opts.PublishedOnly && !post.Published {
			return nil
		}
		if opts.Tag != "" && !hasTag(post.Tags, opts.Tag) {
			return nil
		}
		posts = append(posts, &post)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
	if opts.Limit > 0 && len(posts) > opts.Limit {
		posts = posts[:opts.Limit]
	}
	return posts, nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
