package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/holosched/backend/internal/models"
	"github.com/holosched/backend/internal/repository"
)

type FollowHandler struct {
	followRepo *repository.FollowRepository
	userRepo   *repository.UserRepository
}

func NewFollowHandler(followRepo *repository.FollowRepository, userRepo *repository.UserRepository) *FollowHandler {
	return &FollowHandler{followRepo: followRepo, userRepo: userRepo}
}

// Follow adds a streamer to the caller's aggregated schedule
func (h *FollowHandler) Follow(c *gin.Context) {
	var req models.FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	if _, err := h.userRepo.GetStreamer(req.StreamerID); err != nil {
		ErrorResponse(c, http.StatusNotFound, "Streamer not found")
		return
	}

	if err := h.followRepo.Create(uid, req.StreamerID); err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to follow streamer")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Unfollow removes a streamer from the caller's aggregated schedule
func (h *FollowHandler) Unfollow(c *gin.Context) {
	streamerID, err := uuid.Parse(c.Param("streamer_id"))
	if err != nil {
		ErrorResponse(c, http.StatusUnprocessableEntity, "invalid streamer id")
		return
	}

	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	if err := h.followRepo.Delete(uid, streamerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ErrorResponse(c, http.StatusNotFound, "Follow not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "Failed to unfollow streamer")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListFollowed returns the streamers the caller follows
func (h *FollowHandler) ListFollowed(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	followed, err := h.followRepo.ListFollowed(uid)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to list follows")
		return
	}
	if followed == nil {
		followed = []models.StreamerSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"streamers": followed})
}

// SearchStreamers finds streamers by display name
func (h *FollowHandler) SearchStreamers(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusOK, gin.H{"streamers": []models.StreamerSummary{}})
		return
	}

	streamers, err := h.userRepo.SearchStreamers(query, 20)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to search streamers")
		return
	}
	if streamers == nil {
		streamers = []models.StreamerSummary{}
	}
	c.JSON(http.StatusOK, gin.H{"streamers": streamers})
}
