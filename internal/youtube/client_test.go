package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewClient("test-key", 2*time.Second)
	client.SetBaseURL(server.URL)
	return client, server
}

func TestClient_GetVideo(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("Expected api key in query")
		}
		w.Write([]byte(`{
			"items": [{
				"id": "abc",
				"snippet": {
					"title": "Karaoke night",
					"description": "singing",
					"channelTitle": "Some Channel",
					"publishedAt": "2024-01-01T08:00:00Z"
				},
				"liveStreamingDetails": {
					"scheduledStartTime": "2024-01-02T19:00:00Z",
					"scheduledEndTime": "2024-01-02T21:00:00Z"
				}
			}]
		}`))
	})

	v, err := client.GetVideo(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if v.Title != "Karaoke night" || v.ChannelTitle != "Some Channel" {
		t.Errorf("Unexpected snippet fields: %+v", v)
	}
	if v.ScheduledStart == nil || !v.ScheduledStart.Equal(time.Date(2024, 1, 2, 19, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected scheduled start: %v", v.ScheduledStart)
	}
	if v.ScheduledEnd == nil || !v.ScheduledEnd.Equal(time.Date(2024, 1, 2, 21, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected scheduled end: %v", v.ScheduledEnd)
	}
}

func TestClient_GetVideo_NoScheduledEnd(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"items": [{
				"id": "abc",
				"snippet": {"title": "Ongoing", "publishedAt": "2024-01-01T08:00:00Z"},
				"liveStreamingDetails": {"scheduledStartTime": "2024-01-02T19:00:00Z"}
			}]
		}`))
	})

	v, err := client.GetVideo(context.Background(), "abc")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if v.ScheduledEnd != nil {
		t.Errorf("Expected nil scheduled end, got %v", v.ScheduledEnd)
	}
}

func TestClient_GetVideo_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	})

	_, err := client.GetVideo(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestClient_GetVideo_NotLivestream(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"items": [{"id": "abc", "snippet": {"title": "Plain upload", "publishedAt": "2024-01-01T08:00:00Z"}}]
		}`))
	})

	_, err := client.GetVideo(context.Background(), "abc")
	if !errors.Is(err, ErrNotLivestream) {
		t.Errorf("Expected ErrNotLivestream, got %v", err)
	}
}

func TestClient_GetVideo_APIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"code": 403, "message": "quota exceeded"}}`))
	})

	_, err := client.GetVideo(context.Background(), "abc")
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("Expected ErrUpstream, got %v", err)
	}
}

func TestClient_GetVideo_MalformedJSON(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})

	_, err := client.GetVideo(context.Background(), "abc")
	if !errors.Is(err, ErrUpstream) {
		t.Errorf("Expected ErrUpstream, got %v", err)
	}
}

func TestClient_SearchUpcoming(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			if r.URL.Query().Get("eventType") != "upcoming" {
				t.Errorf("Expected eventType=upcoming")
			}
			w.Write([]byte(`{"items": [{"id": {"videoId": "v1"}}, {"id": {"videoId": "v2"}}, {"id": {}}]}`))
		case "/videos":
			if r.URL.Query().Get("id") != "v1,v2" {
				t.Errorf("Expected batched ids, got %s", r.URL.Query().Get("id"))
			}
			w.Write([]byte(`{
				"items": [
					{"id": "v1", "snippet": {"title": "One"}, "liveStreamingDetails": {"scheduledStartTime": "2024-01-02T19:00:00Z"}},
					{"id": "v2", "snippet": {"title": "Two"}}
				]
			}`))
		default:
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
	})

	videos, err := client.SearchUpcoming(context.Background(), "chan-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("Expected 2 videos, got %d", len(videos))
	}
	if videos[0].ID != "v1" || videos[0].ScheduledStart == nil {
		t.Errorf("Unexpected first video: %+v", videos[0])
	}
	// v2 has no scheduled start; the import path skips it later
	if videos[1].ScheduledStart != nil {
		t.Errorf("Expected nil scheduled start for v2")
	}
}

func TestClient_SearchUpcoming_Empty(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	})

	videos, err := client.SearchUpcoming(context.Background(), "chan-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(videos) != 0 {
		t.Errorf("Expected no videos, got %d", len(videos))
	}
}

type fakeCache struct {
	videos map[string]*Video
	hits   int
}

func (f *fakeCache) GetVideo(id string) (*Video, bool) {
	v, ok := f.videos[id]
	if ok {
		f.hits++
	}
	return v, ok
}

func (f *fakeCache) SetVideo(v *Video) {
	f.videos[v.ID] = v
}

func TestClient_GetVideo_UsesCache(t *testing.T) {
	var calls int
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{
			"items": [{"id": "abc", "snippet": {"title": "Cached"}, "liveStreamingDetails": {"scheduledStartTime": "2024-01-02T19:00:00Z"}}]
		}`))
	})
	client.SetCache(&fakeCache{videos: map[string]*Video{}})

	for i := 0; i < 3; i++ {
		if _, err := client.GetVideo(context.Background(), "abc"); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	if calls != 1 {
		t.Errorf("Expected a single upstream call, got %d", calls)
	}
}
