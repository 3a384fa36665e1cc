// Package client calls the places HTTP API on behalf of the CLI.
package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/emilythestrangee/dcplaces/backend/internal/models"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, http.StatusText(e.Status), e.Message)
}

type errorBody struct {
	Error string `json:"error"`
}

// TokenSource returns the current access token, or "" when signed out.
type TokenSource func() string

type Client struct {
	http  *resty.Client
	token TokenSource
}

func New(baseURL string, token TokenSource) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetHeader("Accept", "application/json").
			SetTimeout(30 * time.Second),
		token: token,
	}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.http.R().SetContext(ctx).SetError(&errorBody{})
	if tok := c.token(); tok != "" {
		req.SetAuthToken(tok)
	}
	return req
}

func check(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsError() {
		return nil
	}
	msg := strings.TrimSpace(resp.String())
	if body, ok := resp.Error().(*errorBody); ok && body.Error != "" {
		msg = body.Error
	}
	return &APIError{Status: resp.StatusCode(), Message: msg}
}

func postPath(id int64) string {
	return "/api/posts/" + strconv.FormatInt(id, 10)
}

func (c *Client) ListPosts(ctx context.Context, sort, search string) ([]models.Post, error) {
	var posts []models.Post
	req := c.request(ctx).SetResult(&posts)
	if sort != "" {
		req.SetQueryParam("sort", sort)
	}
	if search != "" {
		req.SetQueryParam("search", search)
	}
	return posts, check(req.Get("/api/posts"))
}

func (c *Client) Featured(ctx context.Context) ([]models.Post, error) {
	var posts []models.Post
	return posts, check(c.request(ctx).SetResult(&posts).Get("/api/posts/featured"))
}

func (c *Client) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	if err := check(c.request(ctx).SetResult(&post).Get(postPath(id))); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) CreatePost(ctx context.Context, in models.CreatePostRequest) (*models.Post, error) {
	var post models.Post
	if err := check(c.request(ctx).SetBody(in).SetResult(&post).Post("/api/posts")); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) UpdatePost(ctx context.Context, id int64, in models.UpdatePostRequest) (*models.Post, error) {
	var post models.Post
	if err := check(c.request(ctx).SetBody(in).SetResult(&post).Put(postPath(id))); err != nil {
		return nil, err
	}
	return &post, nil
}

func (c *Client) DeletePost(ctx context.Context, id int64) error {
	return check(c.request(ctx).Delete(postPath(id)))
}

func (c *Client) Upvote(ctx context.Context, id int64) (int, error) {
	var out struct {
		Upvotes int `json:"upvotes"`
	}
	err := check(c.request(ctx).SetResult(&out).Post(postPath(id) + "/upvote"))
	return out.Upvotes, err
}

func (c *Client) ListComments(ctx context.Context, postID int64) ([]models.Comment, error) {
	var comments []models.Comment
	return comments, check(c.request(ctx).SetResult(&comments).Get(postPath(postID) + "/comments"))
}

func (c *Client) AddComment(ctx context.Context, postID int64, content string) (*models.Comment, error) {
	var comment models.Comment
	err := check(c.request(ctx).
		SetBody(models.CommentRequest{Content: content}).
		SetResult(&comment).
		Post(postPath(postID) + "/comments"))
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) EditComment(ctx context.Context, postID, commentID int64, content string) (*models.Comment, error) {
	var comment models.Comment
	err := check(c.request(ctx).
		SetBody(models.CommentRequest{Content: content}).
		SetResult(&comment).
		Put(fmt.Sprintf("%s/comments/%d", postPath(postID), commentID)))
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (c *Client) DeleteComment(ctx context.Context, postID, commentID int64) error {
	return check(c.request(ctx).Delete(fmt.Sprintf("%s/comments/%d", postPath(postID), commentID)))
}

// UploadImage sends an image and returns the URL to use as a post's image_url.
func (c *Client) UploadImage(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	err := check(c.request(ctx).
		SetMultipartField("image", filename, contentType, r).
		SetResult(&out).
		Post("/api/uploads"))
	return out.URL, err
}
