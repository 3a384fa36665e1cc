package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/dcplaces/backend/internal/client"
	"github.com/emilythestrangee/dcplaces/backend/internal/config"
	"github.com/emilythestrangee/dcplaces/backend/internal/identity"
	"github.com/emilythestrangee/dcplaces/backend/internal/logs"
	"github.com/emilythestrangee/dcplaces/backend/internal/models"
	"github.com/emilythestrangee/dcplaces/backend/internal/session"
)

type sessionStore interface {
	Load() (*models.Session, error)
	Save(s *models.Session) error
}

// App is what every command runs against: the identity client, the session
// store that follows it, and the API client authorised by that store.
type App struct {
	Auth  *identity.Client
	Store *session.Store
	API   *client.Client
	Out   io.Writer

	file       sessionStore
	stopWatch  func()
	persistErr error
}

func newApp(cfg *config.Config, out io.Writer) (*App, error) {
	if cfg.Supabase.URL == "" || cfg.Supabase.AnonKey == "" {
		return nil, fmt.Errorf("set SUPABASE_URL and SUPABASE_ANON_KEY")
	}

	path := cfg.SessionFile
	if path == "" {
		var err error
		if path, err = DefaultSessionPath(); err != nil {
			return nil, err
		}
	}

	auth := identity.NewClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, cfg.Supabase.Timeout)
	store := session.NewStore(auth)
	app := &App{
		Auth:  auth,
		Store: store,
		Out:   out,
		file:  SessionFile{Path: path},
	}
	app.API = client.New(cfg.APIBaseURL, app.accessToken)
	return app, nil
}

func (a *App) accessToken() string {
	if s := a.Store.Current(); s != nil {
		return s.AccessToken
	}
	return ""
}

// start restores the saved session, refreshing it first when it is about to
// expire, and begins following auth changes.
func (a *App) start(ctx context.Context) error {
	saved, err := a.file.Load()
	if err != nil {
		return err
	}

	if saved != nil && saved.ExpiresAt == 0 {
		saved.ExpiresAt = tokenExpiry(saved.AccessToken)
	}
	if saved != nil && saved.Expired(time.Now().Add(session.DefaultRefreshMargin)) {
		saved = a.refreshSaved(ctx, saved)
	}

	a.stopWatch = a.Store.Watch(func(event identity.Event, s *models.Session) {
		if event == identity.EventInitialSession {
			return
		}
		if err := a.file.Save(s); err != nil {
			a.persistErr = err
		}
	})
	a.Store.Start(ctx, saved)
	return nil
}

// tokenExpiry reads exp from an access token without verifying it; the API
// does the verification. Zero when the token carries no expiry.
func tokenExpiry(accessToken string) int64 {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return 0
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	return exp.Unix()
}

func (a *App) refreshSaved(ctx context.Context, saved *models.Session) *models.Session {
	if saved.RefreshToken == "" {
		a.forget()
		return nil
	}
	res := a.Auth.RefreshSession(ctx, saved.RefreshToken)
	if !res.Success {
		logs.WithFields(logrus.Fields{"error": res.Error}).Debug("Saved session could not be refreshed")
		a.forget()
		return nil
	}
	// The TOKEN_REFRESHED notification went out before the store subscribed.
	if err := a.file.Save(res.Data.Session); err != nil {
		a.persistErr = err
	}
	return res.Data.Session
}

// forget removes a saved session that can no longer be used.
func (a *App) forget() {
	if err := a.file.Save(nil); err != nil {
		a.persistErr = err
	}
}

// stop tears the store down; queued changes are persisted first.
func (a *App) stop() error {
	a.Store.Close()
	if a.stopWatch != nil {
		a.stopWatch()
	}
	return a.persistErr
}

func (a *App) requireSession() (*models.Session, error) {
	s := a.Store.Current()
	if s == nil {
		return nil, fmt.Errorf("not signed in; run `placesctl signin` first")
	}
	return s, nil
}

var (
	okColor   = color.New(color.FgGreen)
	dimColor  = color.New(color.Faint)
	headColor = color.New(color.Bold)
)

func (a *App) ok(format string, args ...interface{}) {
	okColor.Fprintf(a.Out, format+"\n", args...)
}
