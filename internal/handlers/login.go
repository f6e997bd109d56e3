package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"supplier-chat/internal/models"
	"supplier-chat/internal/repositories"
	"supplier-chat/internal/telemetry"
)

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	GenerateToken(userID int64) (string, error)
}

// LoginHandler issues development session tokens.
type LoginHandler struct {
	issuer     TokenIssuer
	threadRepo repositories.ThreadRepository
	audit      *telemetry.AuditEmitter
}

// NewLoginHandler builds a LoginHandler.
func NewLoginHandler(issuer TokenIssuer, threadRepo repositories.ThreadRepository, audit *telemetry.AuditEmitter) *LoginHandler {
	return &LoginHandler{issuer: issuer, threadRepo: threadRepo, audit: audit}
}

// Login records the user's display data and returns a signed token. There
// is no password check; the relay is a development peer.
func (h *LoginHandler) Login(c *gin.Context) {
	var req struct {
		UserID int64  `json:"user_id" binding:"required"`
		Name   string `json:"name"`
		Avatar string `json:"avatar"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := models.User{ID: req.UserID, Name: req.Name, Avatar: req.Avatar}
	if err := h.threadRepo.UpsertUser(c.Request.Context(), user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not save user"})
		return
	}

	token, err := h.issuer.GenerateToken(req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	h.audit.Emit(c.Request.Context(), telemetry.LevelInfo, "session token issued", requestIDFromContext(c), req.UserID)
	c.JSON(http.StatusOK, gin.H{"token": token, "user_id": req.UserID})
}
