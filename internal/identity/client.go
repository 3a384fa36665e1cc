package identity

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/dcplaces/backend/internal/logs"
	"github.com/emilythestrangee/dcplaces/backend/internal/models"
)

// AuthData is the payload of a successful identity call. Session is nil when
// the account still needs email confirmation.
type AuthData struct {
	User    *models.User    `json:"user,omitempty"`
	Session *models.Session `json:"session,omitempty"`
}

// Result is the single shape every identity call returns. Failures carry only
// a message.
type Result struct {
	Success bool      `json:"success"`
	Data    *AuthData `json:"data,omitempty"`
	Error   string    `json:"error,omitempty"`
}

func failure(msg string) Result {
	return Result{Success: false, Error: msg}
}

// Client talks to a Supabase GoTrue server.
type Client struct {
	http     *resty.Client
	validate *validator.Validate
	now      func() time.Time

	mu   sync.Mutex
	subs map[*Subscription]struct{}
}

func NewClient(baseURL, anonKey string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+"/auth/v1").
		SetHeader("apikey", anonKey).
		SetHeader("Content-Type", "application/json").
		SetAuthToken(anonKey).
		SetTimeout(timeout)

	return &Client{
		http:     rc,
		validate: validator.New(),
		now:      time.Now,
		subs:     make(map[*Subscription]struct{}),
	}
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type refreshBody struct {
	RefreshToken string `json:"refresh_token"`
}

// sessionResponse covers both shapes /signup can answer with: a full session,
// or a bare user when confirmation is pending.
type sessionResponse struct {
	models.Session
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (r *sessionResponse) data(now time.Time) *AuthData {
	if r.AccessToken == "" {
		return &AuthData{User: &models.User{ID: r.ID, Email: r.Email}}
	}
	s := r.Session
	if s.ExpiresAt == 0 && s.ExpiresIn > 0 {
		s.ExpiresAt = now.Add(time.Duration(s.ExpiresIn) * time.Second).Unix()
	}
	u := s.User
	return &AuthData{User: &u, Session: &s}
}

type apiError struct {
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorName        string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *apiError) message() string {
	for _, m := range []string{e.Msg, e.ErrorDescription, e.Message, e.ErrorName} {
		if m != "" {
			return m
		}
	}
	return ""
}

// SignUp asks the identity service to create an account.
func (c *Client) SignUp(ctx context.Context, email, password string) Result {
	creds := credentials{Email: strings.TrimSpace(email), Password: password}
	if msg := c.check(creds); msg != "" {
		return c.fail("Sign-up error", msg)
	}

	var body sessionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(creds).
		SetResult(&body).
		SetError(&apiError{}).
		Post("/signup")
	if msg := errorMessage(resp, err); msg != "" {
		return c.fail("Sign-up error", msg)
	}

	data := body.data(c.now())
	if data.Session != nil {
		c.publish(EventSignedIn, data.Session)
	}
	return Result{Success: true, Data: data}
}

// SignIn verifies email and password and opens a session.
func (c *Client) SignIn(ctx context.Context, email, password string) Result {
	creds := credentials{Email: strings.TrimSpace(email), Password: password}
	if msg := c.check(creds); msg != "" {
		return c.fail("Sign in error occurred", msg)
	}

	var body sessionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "password").
		SetBody(creds).
		SetResult(&body).
		SetError(&apiError{}).
		Post("/token")
	if msg := errorMessage(resp, err); msg != "" {
		return c.fail("Sign in error occurred", msg)
	}

	data := body.data(c.now())
	if data.Session == nil {
		return c.fail("Sign in error occurred", "identity service returned no session")
	}
	c.publish(EventSignedIn, data.Session)
	return Result{Success: true, Data: data}
}

// RefreshSession trades a refresh token for a new session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) Result {
	if refreshToken == "" {
		return c.fail("Session refresh error", "refresh token is required")
	}

	var body sessionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("grant_type", "refresh_token").
		SetBody(refreshBody{RefreshToken: refreshToken}).
		SetResult(&body).
		SetError(&apiError{}).
		Post("/token")
	if msg := errorMessage(resp, err); msg != "" {
		return c.fail("Session refresh error", msg)
	}

	data := body.data(c.now())
	if data.Session == nil {
		return c.fail("Session refresh error", "identity service returned no session")
	}
	c.publish(EventTokenRefreshed, data.Session)
	return Result{Success: true, Data: data}
}

// SignOut revokes the session behind accessToken. A token the service no
// longer recognises counts as signed out.
func (c *Client) SignOut(ctx context.Context, accessToken string) Result {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetError(&apiError{}).
		Post("/logout")
	if err != nil {
		return c.fail("Sign-out error", err.Error())
	}
	if resp.IsError() {
		switch resp.StatusCode() {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		default:
			return c.fail("Sign-out error", errorMessage(resp, nil))
		}
	}

	c.publish(EventSignedOut, nil)
	return Result{Success: true}
}

// GetUser fetches the account behind an access token.
func (c *Client) GetUser(ctx context.Context, accessToken string) Result {
	var user models.User
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&user).
		SetError(&apiError{}).
		Get("/user")
	if msg := errorMessage(resp, err); msg != "" {
		return c.fail("Get user error", msg)
	}
	return Result{Success: true, Data: &AuthData{User: &user}}
}

func (c *Client) check(creds credentials) string {
	err := c.validate.Struct(creds)
	if err == nil {
		return ""
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch {
	case fe.Field() == "Email" && fe.Tag() == "required":
		return "Email is required"
	case fe.Field() == "Email":
		return "Invalid email format"
	case fe.Field() == "Password" && fe.Tag() == "required":
		return "Password is required"
	default:
		return "Password must be at least 6 characters long"
	}
}

func (c *Client) fail(what, msg string) Result {
	logs.WithFields(logrus.Fields{"error": msg}).Error(what)
	return failure(msg)
}

// errorMessage collapses transport and API failures into one string; empty
// means the call succeeded.
func errorMessage(resp *resty.Response, err error) string {
	if err != nil {
		return err.Error()
	}
	if resp == nil || !resp.IsError() {
		return ""
	}
	if apiErr, ok := resp.Error().(*apiError); ok {
		if msg := apiErr.message(); msg != "" {
			return msg
		}
	}
	if body := strings.TrimSpace(resp.String()); body != "" && len(body) < 200 {
		return body
	}
	return http.StatusText(resp.StatusCode())
}
