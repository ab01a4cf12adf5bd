package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/holosched/backend/config"
	"github.com/holosched/backend/internal/cache"
	"github.com/holosched/backend/internal/models"
	"github.com/holosched/backend/internal/repository"
	"github.com/holosched/backend/internal/schedule"
	"github.com/holosched/backend/internal/youtube"
)

// MetadataResolver resolves external video metadata synchronously, in the
// request path. *youtube.Client satisfies this.
type MetadataResolver interface {
	GetVideo(ctx context.Context, videoID string) (*youtube.Video, error)
	SearchUpcoming(ctx context.Context, channelID string) ([]youtube.Video, error)
}

type StreamHandler struct {
	streamRepo   *repository.StreamRepository
	ytClient     MetadataResolver
	redis        *cache.RedisClient
	policy       schedule.FallbackPolicy
	scheduleMode string
}

func NewStreamHandler(streamRepo *repository.StreamRepository, ytClient MetadataResolver, redis *cache.RedisClient, cfg *config.Config) *StreamHandler {
	return &StreamHandler{
		streamRepo: streamRepo,
		ytClient:   ytClient,
		redis:      redis,
		policy: schedule.FallbackPolicy{
			Synthetic:         cfg.Schedule.EndTimeFallback == config.EndTimeFallbackSynthetic,
			SyntheticDuration: cfg.SyntheticEndDuration(),
		},
		scheduleMode: cfg.Schedule.Mode,
	}
}

// CreateStream adds a manual entry. The UI always collects both times, so
// the candidate is fully bounded and subject to the overlap guard.
func (h *StreamHandler) CreateStream(c *gin.Context) {
	var req models.CreateStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		ErrorResponse(c, http.StatusUnprocessableEntity, "start_time must be RFC3339")
		return
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		ErrorResponse(c, http.StatusUnprocessableEntity, "end_time must be RFC3339")
		return
	}
	endUTC := end.UTC()

	// Manual YouTube links are normalized so the dedup guard sees the
	// same canonical form the importer writes.
	url := req.URL
	if id, ok := youtube.ExtractVideoID(url); ok {
		url = youtube.WatchURL(id)
	}

	s := &models.Stream{
		ID:          uuid.New(),
		StreamerID:  uid,
		Title:       req.Title,
		Description: req.Description,
		Platform:    req.Platform,
		URL:         url,
		StartTime:   start.UTC(),
		EndTime:     &endUTC,
		Category:    req.Category,
		CreatedAt:   time.Now().UTC(),
	}

	if err := h.streamRepo.CreateGuarded(s); err != nil {
		h.respondGuardError(c, err)
		return
	}

	h.publishEvent(models.EventStreamAdded, s)
	c.JSON(http.StatusCreated, s)
}

// AddFromYouTube resolves a single video URL and adds it to the schedule
func (h *StreamHandler) AddFromYouTube(c *gin.Context) {
	var req models.AddYouTubeStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	videoID, ok := youtube.ExtractVideoID(req.URL)
	if !ok {
		ErrorResponse(c, http.StatusUnprocessableEntity, "Only YouTube links are supported")
		return
	}

	video, err := h.ytClient.GetVideo(c.Request.Context(), videoID)
	if err != nil {
		h.respondResolverError(c, err)
		return
	}

	s := h.streamFromVideo(uid, video)
	if err := h.streamRepo.CreateGuarded(s); err != nil {
		h.respondGuardError(c, err)
		return
	}

	h.publishEvent(models.EventStreamAdded, s)
	c.JSON(http.StatusCreated, s)
}

// ImportChannel bulk-imports a channel's upcoming broadcasts. Candidates
// that are duplicates, lack a scheduled start, or fail their own guard are
// skipped; the response counts only successful inserts.
func (h *StreamHandler) ImportChannel(c *gin.Context) {
	var req models.ImportChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	videos, err := h.ytClient.SearchUpcoming(c.Request.Context(), req.ChannelID)
	if err != nil {
		h.respondResolverError(c, err)
		return
	}

	imported := 0
	for i := range videos {
		v := &videos[i]
		if v.ScheduledStart == nil {
			continue
		}
		s := h.streamFromVideo(uid, v)
		if err := h.streamRepo.CreateGuarded(s); err != nil {
			continue
		}
		h.publishEvent(models.EventStreamAdded, s)
		imported++
	}

	c.JSON(http.StatusOK, models.ImportResult{ImportedCount: imported})
}

// DeleteStream removes an entry the caller owns
func (h *StreamHandler) DeleteStream(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		ErrorResponse(c, http.StatusUnprocessableEntity, "invalid stream id")
		return
	}

	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	if err := h.streamRepo.DeleteOwned(id, uid); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			ErrorResponse(c, http.StatusNotFound, "Stream not found")
			return
		}
		ErrorResponse(c, http.StatusInternalServerError, "Failed to delete stream")
		return
	}

	h.publishEvent(models.EventStreamRemoved, &models.Stream{ID: id, StreamerID: uid})
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListStreams returns all of the caller's entries
func (h *StreamHandler) ListStreams(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	streams, err := h.streamRepo.ListByOwner(uid)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to list streams")
		return
	}
	if streams == nil {
		streams = []models.Stream{}
	}
	c.JSON(http.StatusOK, gin.H{"streams": streams})
}

// GetWeeklySchedule returns the 7-day day-bucketed view. The source set is
// the caller's own entries or, in aggregated mode, every followed
// streamer's entries.
func (h *StreamHandler) GetWeeklySchedule(c *gin.Context) {
	userID, _ := c.Get("user_id")
	uid := userID.(uuid.UUID)

	now := time.Now().UTC()

	var (
		streams []models.Stream
		err     error
	)
	if h.scheduleMode == config.ScheduleModeAggregated {
		streams, err = h.streamRepo.ListUpcomingFollowed(uid, now)
	} else {
		streams, err = h.streamRepo.ListUpcomingByOwner(uid, now)
	}
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, "Failed to load schedule")
		return
	}

	c.JSON(http.StatusOK, gin.H{"week": schedule.BuildWeek(streams, now)})
}

// streamFromVideo maps resolved metadata onto a new schedule entry,
// applying the start fallback chain and the end-time policy.
func (h *StreamHandler) streamFromVideo(ownerID uuid.UUID, v *youtube.Video) *models.Stream {
	start := time.Now().UTC()
	if v.ScheduledStart != nil {
		start = *v.ScheduledStart
	} else if v.PublishedAt != nil {
		start = *v.PublishedAt
	}

	var description *string
	if v.Description != "" {
		description = &v.Description
	}
	var category *string
	if v.ChannelTitle != "" {
		category = &v.ChannelTitle
	}

	return &models.Stream{
		ID:          uuid.New(),
		StreamerID:  ownerID,
		Title:       v.Title,
		Description: description,
		Platform:    "YouTube",
		URL:         youtube.WatchURL(v.ID),
		StartTime:   start,
		EndTime:     h.policy.ResolveEnd(start, v.ScheduledEnd),
		Category:    category,
		CreatedAt:   time.Now().UTC(),
	}
}

func (h *StreamHandler) respondGuardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, schedule.ErrInvalidInterval):
		ErrorResponse(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, schedule.ErrDuplicateURL):
		ErrorResponse(c, http.StatusConflict, "This stream is already in your schedule")
	case errors.Is(err, schedule.ErrOverlap):
		ErrorResponse(c, http.StatusConflict, "This stream overlaps with an existing stream")
	default:
		ErrorResponse(c, http.StatusInternalServerError, "Failed to save stream")
	}
}

func (h *StreamHandler) respondResolverError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, youtube.ErrNotFound):
		ErrorResponse(c, http.StatusNotFound, "Video not found")
	case errors.Is(err, youtube.ErrNotLivestream):
		ErrorResponse(c, http.StatusUnprocessableEntity, "This video is not a scheduled livestream")
	default:
		ErrorResponse(c, http.StatusBadGateway, "YouTube API request failed")
	}
}

func (h *StreamHandler) publishEvent(eventType string, s *models.Stream) {
	if h.redis == nil {
		return
	}
	// Notification only; a publish failure never fails the request.
	_ = h.redis.PublishScheduleEvent(models.ScheduleEvent{
		Type:       eventType,
		StreamerID: s.StreamerID,
		StreamID:   s.ID,
		OccurredAt: time.Now().UTC(),
	})
}
