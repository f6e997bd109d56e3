package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"supplier-chat/internal/middleware"
	"supplier-chat/internal/repositories"
)

// ThreadHandler serves thread listings and thread history.
type ThreadHandler struct {
	threadRepo  repositories.ThreadRepository
	messageRepo repositories.MessageRepository
}

// NewThreadHandler builds a ThreadHandler.
func NewThreadHandler(threadRepo repositories.ThreadRepository, messageRepo repositories.MessageRepository) *ThreadHandler {
	return &ThreadHandler{threadRepo: threadRepo, messageRepo: messageRepo}
}

// ListThreads returns the thread summaries of the authenticated user.
func (h *ThreadHandler) ListThreads(c *gin.Context) {
	threads, err := h.threadRepo.ListThreads(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load threads"})
		return
	}
	c.JSON(http.StatusOK, threads)
}

// StartThread creates or returns the thread between the authenticated buyer
// and a seller about a listing.
func (h *ThreadHandler) StartThread(c *gin.Context) {
	var req struct {
		ListingID    string `json:"listing_id" binding:"required"`
		ListingTitle string `json:"listing_title"`
		SellerID     int64  `json:"seller_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	thread, err := h.threadRepo.CreateOrGetThread(c.Request.Context(), req.ListingID, req.ListingTitle, middleware.UserID(c), req.SellerID)
	if errors.Is(err, repositories.ErrSelfThread) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot chat with yourself"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create thread"})
		return
	}
	c.JSON(http.StatusOK, thread)
}

// GetThreadMessages returns the messages of a thread the user takes part in.
func (h *ThreadHandler) GetThreadMessages(c *gin.Context) {
	threadID, err := strconv.ParseInt(c.Param("thread_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid thread id"})
		return
	}

	thread, err := h.threadRepo.GetThread(c.Request.Context(), threadID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrThreadNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "thread not found"})
		return
	}
	if !thread.Has(middleware.UserID(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a thread participant"})
		return
	}

	msgs, err := h.messageRepo.ThreadMessages(c.Request.Context(), threadID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}
