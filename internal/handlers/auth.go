package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/dcplaces/backend/internal/identity"
	"github.com/emilythestrangee/dcplaces/backend/internal/middleware"
	"github.com/emilythestrangee/dcplaces/backend/internal/models"
)

// Authenticator is the identity service as seen by the API.
type Authenticator interface {
	SignUp(ctx context.Context, email, password string) identity.Result
	SignIn(ctx context.Context, email, password string) identity.Result
	SignOut(ctx context.Context, accessToken string) identity.Result
	RefreshSession(ctx context.Context, refreshToken string) identity.Result
	GetUser(ctx context.Context, accessToken string) identity.Result
}

type AuthHandler struct {
	auth Authenticator
}

func NewAuthHandler(auth Authenticator) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// SignUp registers a new account. The session is empty until the email is
// confirmed, unless the project auto-confirms.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var input models.CredentialsRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, identity.Result{Error: "Email and password are required"})
		return
	}

	res := h.auth.SignUp(c.Request.Context(), input.Email, input.Password)
	if !res.Success {
		c.JSON(http.StatusBadRequest, res)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) SignIn(c *gin.Context) {
	var input models.CredentialsRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, identity.Result{Error: "Email and password are required"})
		return
	}

	res := h.auth.SignIn(c.Request.Context(), input.Email, input.Password)
	if !res.Success {
		c.JSON(http.StatusUnauthorized, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var input models.RefreshRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, identity.Result{Error: "Refresh token is required"})
		return
	}

	res := h.auth.RefreshSession(c.Request.Context(), input.RefreshToken)
	if !res.Success {
		c.JSON(http.StatusUnauthorized, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SignOut revokes the caller's session (PROTECTED)
func (h *AuthHandler) SignOut(c *gin.Context) {
	res := h.auth.SignOut(c.Request.Context(), c.GetString(middleware.AccessTokenKey))
	if !res.Success {
		c.JSON(http.StatusBadGateway, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetUser returns the account behind the caller's token (PROTECTED)
func (h *AuthHandler) GetUser(c *gin.Context) {
	res := h.auth.GetUser(c.Request.Context(), c.GetString(middleware.AccessTokenKey))
	if !res.Success {
		c.JSON(http.StatusUnauthorized, res)
		return
	}
	c.JSON(http.StatusOK, res)
}
