package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/holosched/backend/internal/models"
	"github.com/holosched/backend/internal/youtube"
)

// metadataTTL bounds how long a resolved video is served without re-asking
// the YouTube API.
const metadataTTL = 15 * time.Minute

const scheduleEventsChannel = "schedule_events"

type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisClient creates a new Redis client
func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisClient{
		client: client,
		ctx:    ctx,
	}, nil
}

// Close closes the Redis connection
func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Metadata cache (implements youtube.MetadataCache)

// GetVideo returns a cached resolved video, if present
func (r *RedisClient) GetVideo(id string) (*youtube.Video, bool) {
	key := fmt.Sprintf("yt:video:%s", id)
	data, err := r.client.Get(r.ctx, key).Result()
	if err != nil {
		return nil, false
	}

	var v youtube.Video
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, false
	}
	return &v, true
}

// SetVideo caches a resolved video with a short TTL
func (r *RedisClient) SetVideo(v *youtube.Video) {
	key := fmt.Sprintf("yt:video:%s", v.ID)
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	r.client.Set(r.ctx, key, data, metadataTTL)
}

// Pub/Sub

// PublishScheduleEvent fans a schedule change out to subscribed hubs
func (r *RedisClient) PublishScheduleEvent(ev models.ScheduleEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.client.Publish(r.ctx, scheduleEventsChannel, data).Err()
}

// SubscribeScheduleEvents subscribes to schedule change events
func (r *RedisClient) SubscribeScheduleEvents() *redis.PubSub {
	return r.client.Subscribe(r.ctx, scheduleEventsChannel)
}

// GetClient returns the underlying Redis client
func (r *RedisClient) GetClient() *redis.Client {
	return r.client
}
