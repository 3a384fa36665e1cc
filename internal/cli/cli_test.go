package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/dcplaces/backend/internal/config"
	"github.com/emilythestrangee/dcplaces/backend/internal/models"
)

func init() {
	color.NoColor = true
}

type env struct {
	cfg         *config.Config
	sessionPath string
	upvoteAuth  string
	updated     *models.UpdatePostRequest
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{sessionPath: filepath.Join(t.TempDir(), "session.json")}

	auth := http.NewServeMux()
	auth.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "secret123" && body["refresh_token"] != "refresh-1" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"msg": "Invalid login credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"access_token":  "access-1",
			"token_type":    "bearer",
			"expires_in":    3600,
			"refresh_token": "refresh-1",
			"user":          map[string]string{"id": "user-1", "email": "known@example.com"},
		})
	})
	auth.HandleFunc("/auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	authSrv := httptest.NewServer(auth)
	t.Cleanup(authSrv.Close)

	api := http.NewServeMux()
	api.HandleFunc("/api/posts", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []models.Post{
			{ID: 2, Title: "Union Market", Upvotes: 3, CreatedAt: time.Now()},
			{ID: 1, Title: "National Mall", Upvotes: 8, CreatedAt: time.Now().Add(-time.Hour)},
		})
	})
	api.HandleFunc("/api/posts/2/upvote", func(w http.ResponseWriter, r *http.Request) {
		e.upvoteAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]int{"id": 2, "upvotes": 4})
	})
	api.HandleFunc("/api/posts/5", func(w http.ResponseWriter, r *http.Request) {
		current := models.Post{ID: 5, Title: "Eastern Market", Content: "Saturday flea market", ImageURL: "https://img.example.com/5.jpg"}
		if r.Method == http.MethodPut {
			var in models.UpdatePostRequest
			_ = json.NewDecoder(r.Body).Decode(&in)
			e.updated = &in
			current.Title, current.Content, current.ImageURL = in.Title, in.Content, in.ImageURL
		}
		writeJSON(w, http.StatusOK, current)
	})
	apiSrv := httptest.NewServer(api)
	t.Cleanup(apiSrv.Close)

	e.cfg = &config.Config{
		Supabase:    config.SupabaseConfig{URL: authSrv.URL, AnonKey: "anon-key", Timeout: 5 * time.Second},
		APIBaseURL:  apiSrv.URL,
		SessionFile: e.sessionPath,
	}
	return e
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(func() *config.Config { return e.cfg })
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSignInPersistsSessionAndAuthorisesWrites(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "signin", "--email", "known@example.com", "--password", "secret123")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as known@example.com")

	saved, err := SessionFile{Path: e.sessionPath}.Load()
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "access-1", saved.AccessToken)

	out, err = e.run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "known@example.com")

	out, err = e.run(t, "posts", "upvote", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "now has 4 upvotes")
	assert.Equal(t, "Bearer access-1", e.upvoteAuth)

	_, err = e.run(t, "signout")
	require.NoError(t, err)
	_, statErr := os.Stat(e.sessionPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSignInFailureLeavesNoSession(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "signin", "--email", "nobody@example.com", "--password", "wrong-password")
	require.Error(t, err)
	assert.Equal(t, "Invalid login credentials", err.Error())

	_, statErr := os.Stat(e.sessionPath)
	assert.True(t, os.IsNotExist(statErr))

	_, err = e.run(t, "whoami")
	assert.ErrorContains(t, err, "not signed in")
}

func TestWritesNeedSession(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "posts", "upvote", "2")
	assert.ErrorContains(t, err, "not signed in")
	assert.Empty(t, e.upvoteAuth)
}

func TestPostsList(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "posts", "list", "--sort", "upvotes")
	require.NoError(t, err)
	assert.Contains(t, out, "Union Market")
	assert.Contains(t, out, "National Mall")
}

func TestExpiredSessionIsRefreshedOnStart(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, SessionFile{Path: e.sessionPath}.Save(&models.Session{
		AccessToken:  "stale-access",
		RefreshToken: "refresh-1",
		ExpiresAt:    time.Now().Add(-time.Minute).Unix(),
		User:         models.User{Email: "known@example.com"},
	}))

	_, err := e.run(t, "posts", "upvote", "2")
	require.NoError(t, err)
	assert.Equal(t, "Bearer access-1", e.upvoteAuth)

	saved, err := SessionFile{Path: e.sessionPath}.Load()
	require.NoError(t, err)
	assert.Equal(t, "access-1", saved.AccessToken)
}

func TestSessionFileCorruptIsSignedOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s, err := SessionFile{Path: path}.Load()
	require.NoError(t, err)
	assert.Nil(t, s)

	require.NoError(t, SessionFile{Path: path}.Save(nil))
	require.NoError(t, SessionFile{Path: path}.Save(nil))
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	}).SignedString([]byte("any-secret"))
	require.NoError(t, err)

	assert.Equal(t, exp.Unix(), tokenExpiry(tok))
	assert.Zero(t, tokenExpiry("not-a-jwt"))
}

type stuckSessionFile struct {
	saved *models.Session
}

func (f *stuckSessionFile) Load() (*models.Session, error) { return f.saved, nil }

func (f *stuckSessionFile) Save(s *models.Session) error {
	return errors.New("session file is read-only")
}

func TestUnremovableStaleSessionIsReported(t *testing.T) {
	tests := []struct {
		name  string
		saved *models.Session
	}{
		{
			name:  "No refresh token",
			saved: &models.Session{AccessToken: "old", ExpiresAt: time.Now().Add(-time.Hour).Unix()},
		},
		{
			name:  "Refresh rejected",
			saved: &models.Session{AccessToken: "old", RefreshToken: "revoked", ExpiresAt: time.Now().Add(-time.Hour).Unix()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			app, err := newApp(e.cfg, io.Discard)
			require.NoError(t, err)
			app.file = &stuckSessionFile{saved: tt.saved}

			require.NoError(t, app.start(context.Background()))
			assert.Nil(t, app.Store.Current())
			assert.ErrorContains(t, app.stop(), "read-only")
		})
	}
}

func TestPostsEditFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want models.UpdatePostRequest
	}{
		{
			name: "Unset flags keep current values",
			args: []string{"--title", "Eastern Market DC"},
			want: models.UpdatePostRequest{Title: "Eastern Market DC", Content: "Saturday flea market", ImageURL: "https://img.example.com/5.jpg"},
		},
		{
			name: "Empty flags clear content and image",
			args: []string{"--content", "", "--image", ""},
			want: models.UpdatePostRequest{Title: "Eastern Market"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			_, err := e.run(t, "signin", "--email", "known@example.com", "--password", "secret123")
			require.NoError(t, err)

			_, err = e.run(t, append([]string{"posts", "edit", "5"}, tt.args...)...)
			require.NoError(t, err)
			require.NotNil(t, e.updated)
			assert.Equal(t, tt.want, *e.updated)
		})
	}
}
