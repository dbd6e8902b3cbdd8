package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dmaguire/rampart/internal/common"
	"github.com/dmaguire/rampart/internal/interfaces"
	"github.com/dmaguire/rampart/internal/models"
	"github.com/dmaguire/rampart/internal/services/blog"
)

// handleBlogList handles GET /api/posts and POST /api/posts.
func (s *Server) handleBlogList(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		opts := interfaces.PostListOptions{
			Tag:           q.Get("tag"),
			AuthorID:      q.Get("author"),
			PublishedOnly: true,
		}
		// Authors see their own drafts.
		if uc := common.UserContextFromContext(r.Context()); uc != nil && uc.Role != models.RoleStudent {
			opts.PublishedOnly = false
		}
		posts, err := s.app.BlogService.ListPosts(r.Context(), opts)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list posts")
			return
		}
		WriteData(w, http.StatusOK, posts)

	case http.MethodPost:
		s.handleBlogSave(w, r, "")

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// routePosts dispatches /api/posts/{idOrSlug}.
func (s *Server) routePosts(w http.ResponseWriter, r *http.Request) {
	idOrSlug := strings.TrimPrefix(r.URL.Path, "/api/posts/")
	if idOrSlug == "" {
		WriteError(w, http.StatusBadRequest, "post ID is required in path")
		return
	}

	switch r.Method {
	case http.MethodGet:
		post, err := s.app.BlogService.GetPost(r.Context(), idOrSlug)
		if err != nil {
			WriteError(w, http.StatusNotFound, "post not found")
			return
		}
		WriteData(w, http.StatusOK, post)
	case http.MethodPut:
		s.handleBlogSave(w, r, idOrSlug)
	case http.MethodDelete:
		s.handleBlogDelete(w, r, idOrSlug)
	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

// handleBlogSave handles POST /api/posts (create) and PUT /api/posts/{id}.
func (s *Server) handleBlogSave(w http.ResponseWriter, r *http.Request, postID string) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}
	if user.Role != models.RoleInstructor && user.Role != models.RoleAdmin {
		WriteError(w, http.StatusForbidden, "instructor access required")
		return
	}

	var post models.BlogPost
	if !DecodeJSON(w, r, &post) {
		return
	}
	if postID != "" {
		post.PostID = postID
	}

	saved, err := s.app.BlogService.SavePost(r.Context(), user, &post)
	if err != nil {
		switch {
		case errors.Is(err, blog.ErrForbidden):
			WriteError(w, http.StatusForbidden, err.Error())
		case errors.Is(err, blog.ErrPostNotFound):
			WriteError(w, http.StatusNotFound, err.Error())
		default:
			WriteError(w, http.StatusBadRequest, err.Error())
		}
		return
	}
	WriteData(w, http.StatusOK, saved)
}

func (s *Server) handleBlogDelete(w http.ResponseWriter, r *http.Request, postID string) {
	user := s.requireUser(w, r)
	if user == nil {
		return
	}

	if err := s.app.BlogService.DeletePost(r.Context(), user, postID); err != nil {
		switch {
		case errors.Is(err, blog.ErrForbidden):
			WriteError(w, http.StatusForbidden, err.Error())
		default:
			WriteError(w, http.StatusNotFound, "post not found")
		}
		return
	}
	WriteData(w, http.StatusOK, map[string]interface{}{"deleted": true})
}
