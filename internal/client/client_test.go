package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/dcplaces/backend/internal/models"
)

func TestListPostsSendsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/posts", r.URL.Path)
		assert.Equal(t, "upvotes", r.URL.Query().Get("sort"))
		assert.Equal(t, "mall", r.URL.Query().Get("search"))
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]models.Post{{ID: 3, Title: "National Mall", Upvotes: 7}})
	}))
	defer srv.Close()

	posts, err := New(srv.URL, nil).ListPosts(context.Background(), "upvotes", "mall")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, 7, posts[0].Upvotes)
}

func TestWritesCarryBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/posts/4/upvote":
			_, _ = w.Write([]byte(`{"id":4,"upvotes":11}`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/posts/4/comments":
			var body models.CommentRequest
			_ = json.NewDecoder(r.Body).Decode(&body)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(models.Comment{ID: 1, Content: body.Content})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(srv.URL, func() string { return "access-1" })

	n, err := c.Upvote(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	comment, err := c.AddComment(context.Background(), 4, "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", comment.Content)
}

func TestErrorBodyBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Post not found"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).GetPost(context.Background(), 99)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Post not found", apiErr.Message)
}

func TestUploadImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		b, _ := io.ReadAll(file)
		assert.Equal(t, "png-bytes", string(b))
		assert.Equal(t, "photo.png", header.Filename)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"url":"https://cdn.example.com/posts/1.png"}`))
	}))
	defer srv.Close()

	url, err := New(srv.URL, nil).UploadImage(context.Background(), "photo.png", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/posts/1.png", url)
}
