package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"chat-relay/internal/auth"
	"chat-relay/internal/models"
	"chat-relay/internal/relay"
)

// PromptRelay is the core orchestration behind POST /api/prompt.
type PromptRelay interface {
	Handle(ctx context.Context, ownerID, rawContent string) (string, error)
}

// TurnLister serves the supplementary history read.
type TurnLister interface {
	ListByOwner(ctx context.Context, ownerID string, limit int64) ([]models.Turn, error)
}

type Handler struct {
	authService *auth.Service
	relay       PromptRelay
	turns       TurnLister
}

func NewHandler(authService *auth.Service, promptRelay PromptRelay, turns TurnLister) *Handler {
	return &Handler{authService: authService, relay: promptRelay, turns: turns}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	apiGroup := router.Group("/api")

	authGroup := apiGroup.Group("/auth")
	authGroup.POST("/register", h.handleRegister)
	authGroup.POST("/login", h.handleLogin)

	promptGroup := apiGroup.Group("/prompt")
	promptGroup.Use(auth.Middleware(h.authService))
	promptGroup.POST("", h.handlePrompt)
	promptGroup.GET("/history", h.handleHistory)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type promptRequest struct {
	Content string `json:"content"`
}

func (h *Handler) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid payload", err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), auth.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUsernameRequired), errors.Is(err, auth.ErrPasswordTooWeak):
			writeError(c, http.StatusBadRequest, err.Error(), err)
		case errors.Is(err, auth.ErrUserExists), errors.Is(err, auth.ErrEmailExists):
			writeError(c, http.StatusConflict, err.Error(), err)
		default:
			writeError(c, http.StatusInternalServerError, "failed to register user", err)
		}
		return
	}

	h.setTokenCookie(c, result)
	c.JSON(http.StatusCreated, newAuthResponse(result))
}

func (h *Handler) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid payload", err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), auth.LoginInput{
		Identifier: req.Identifier,
		Password:   req.Password,
	})
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(c, http.StatusUnauthorized, err.Error(), err)
			return
		}
		writeError(c, http.StatusInternalServerError, "failed to login", err)
		return
	}

	h.setTokenCookie(c, result)
	c.JSON(http.StatusOK, newAuthResponse(result))
}

// handlePrompt relays one prompt. 400 uses an "errors" key and 500 carries
// the underlying detail, matching the wire contract the frontend expects.
func (h *Handler) handlePrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"errors": "Prompt content is required."})
		return
	}

	reply, err := h.relay.Handle(c.Request.Context(), auth.OwnerID(c), req.Content)
	if err != nil {
		if errors.Is(err, relay.ErrEmptyPrompt) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": "Prompt content is required."})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  "Something went wrong with the AI response",
			"detail": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": reply})
}

func (h *Handler) handleHistory(c *gin.Context) {
	turns, err := h.turns.ListByOwner(c.Request.Context(), auth.OwnerID(c), 0)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "failed to load history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"turns": turns})
}

func (h *Handler) setTokenCookie(c *gin.Context, result *auth.AuthResult) {
	maxAge := int(h.authService.TokenTTL() / time.Second)
	c.SetCookie(auth.TokenCookie, result.Token, maxAge, "/", "", false, true)
}

func newAuthResponse(result *auth.AuthResult) gin.H {
	return gin.H{
		"token":     result.Token,
		"expiresAt": result.ExpiresAt.Format(time.RFC3339),
		"user": gin.H{
			"id":        result.User.ID,
			"username":  result.User.Username,
			"email":     result.User.Email,
			"createdAt": result.User.CreatedAt.Format(time.RFC3339),
			"updatedAt": result.User.UpdatedAt.Format(time.RFC3339),
		},
	}
}

func writeError(c *gin.Context, status int, message string, err error) {
	c.JSON(status, gin.H{
		"error":  message,
		"detail": err.Error(),
	})
}
