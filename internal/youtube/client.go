package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// searchMaxResults caps how many upcoming broadcasts one channel import pulls.
const searchMaxResults = 10

var (
	// ErrNotFound means the API returned no item for the requested id.
	ErrNotFound = errors.New("youtube video not found")
	// ErrNotLivestream means the video exists but carries no livestream details.
	ErrNotLivestream = errors.New("video is not a scheduled livestream")
	// ErrUpstream wraps transport failures, timeouts and malformed responses.
	ErrUpstream = errors.New("youtube api request failed")
)

// Video is the resolved metadata for one broadcast.
type Video struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	ChannelTitle   string     `json:"channel_title"`
	PublishedAt    *time.Time `json:"published_at,omitempty"`
	ScheduledStart *time.Time `json:"scheduled_start,omitempty"`
	ScheduledEnd   *time.Time `json:"scheduled_end,omitempty"`
}

// MetadataCache is an optional read-through cache for resolved videos.
type MetadataCache interface {
	GetVideo(id string) (*Video, bool)
	SetVideo(v *Video)
}

// Client talks to the YouTube Data API v3.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      MetadataCache
}

func NewClient(apiKey string, timeout time.Duration) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SetBaseURL overrides the API endpoint, used by tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// SetCache installs an optional metadata cache.
func (c *Client) SetCache(cache MetadataCache) {
	c.cache = cache
}

// Wire format structs for the two API endpoints we call.

type videoListResponse struct {
	Items []videoItem `json:"items"`
	Error *apiError   `json:"error,omitempty"`
}

type videoItem struct {
	ID                   string                `json:"id"`
	Snippet              videoSnippet          `json:"snippet"`
	LiveStreamingDetails *liveStreamingDetails `json:"liveStreamingDetails,omitempty"`
}

type videoSnippet struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ChannelTitle string `json:"channelTitle"`
	PublishedAt  string `json:"publishedAt"`
}

type liveStreamingDetails struct {
	ScheduledStartTime string `json:"scheduledStartTime"`
	ScheduledEndTime   string `json:"scheduledEndTime"`
}

type searchListResponse struct {
	Items []searchItem `json:"items"`
	Error *apiError    `json:"error,omitempty"`
}

type searchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// GetVideo resolves metadata for a single video id. The video must be a
// livestream (have liveStreamingDetails); plain uploads are rejected.
func (c *Client) GetVideo(ctx context.Context, videoID string) (*Video, error) {
	if c.cache != nil {
		if v, ok := c.cache.GetVideo(videoID); ok {
			return v, nil
		}
	}

	videos, err := c.getVideos(ctx, []string{videoID})
	if err != nil {
		return nil, err
	}
	if len(videos) == 0 {
		return nil, ErrNotFound
	}

	v := videos[0]
	if !v.live {
		return nil, ErrNotLivestream
	}

	result := v.Video
	if c.cache != nil {
		c.cache.SetVideo(&result)
	}
	return &result, nil
}

// SearchUpcoming lists metadata for a channel's upcoming broadcasts.
// Individual items with unparsable data are dropped, not reported.
func (c *Client) SearchUpcoming(ctx context.Context, channelID string) ([]Video, error) {
	query := url.Values{}
	query.Set("part", "snippet")
	query.Set("channelId", channelID)
	query.Set("type", "video")
	query.Set("eventType", "upcoming")
	query.Set("maxResults", fmt.Sprintf("%d", searchMaxResults))
	query.Set("key", c.apiKey)

	var search searchListResponse
	if err := c.getJSON(ctx, "/search", query, &search); err != nil {
		return nil, err
	}
	if search.Error != nil {
		return nil, fmt.Errorf("%w: %s (code %d)", ErrUpstream, search.Error.Message, search.Error.Code)
	}

	ids := make([]string, 0, len(search.Items))
	for _, item := range search.Items {
		if item.ID.VideoID != "" {
			ids = append(ids, item.ID.VideoID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	resolved, err := c.getVideos(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]Video, 0, len(resolved))
	for _, v := range resolved {
		out = append(out, v.Video)
	}
	return out, nil
}

type resolvedVideo struct {
	Video
	live bool
}

func (c *Client) getVideos(ctx context.Context, ids []string) ([]resolvedVideo, error) {
	query := url.Values{}
	query.Set("part", "snippet,liveStreamingDetails")
	query.Set("id", strings.Join(ids, ","))
	query.Set("key", c.apiKey)

	var list videoListResponse
	if err := c.getJSON(ctx, "/videos", query, &list); err != nil {
		return nil, err
	}
	if list.Error != nil {
		return nil, fmt.Errorf("%w: %s (code %d)", ErrUpstream, list.Error.Message, list.Error.Code)
	}

	out := make([]resolvedVideo, 0, len(list.Items))
	for _, item := range list.Items {
		if item.ID == "" {
			continue
		}
		v := resolvedVideo{
			Video: Video{
				ID:           item.ID,
				Title:        item.Snippet.Title,
				Description:  item.Snippet.Description,
				ChannelTitle: item.Snippet.ChannelTitle,
				PublishedAt:  parseTime(item.Snippet.PublishedAt),
			},
		}
		if item.LiveStreamingDetails != nil {
			v.live = true
			v.ScheduledStart = parseTime(item.LiveStreamingDetails.ScheduledStartTime)
			v.ScheduledEnd = parseTime(item.LiveStreamingDetails.ScheduledEndTime)
		}
		out = append(out, v)
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest interface{}) error {
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("%w: invalid JSON response", ErrUpstream)
	}
	return nil
}

func parseTime(value string) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
