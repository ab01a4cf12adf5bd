// Package schedule holds the reconciliation rules for a personal stream
// schedule: interval validation, the overlap and dedup guards, the end-time
// fallback policy and the 7-day weekly view.
package schedule

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/holosched/backend/internal/models"
)

// WindowDays is the length of the rolling presentation window.
const WindowDays = 7

var (
	// ErrInvalidInterval means the candidate end is not after its start.
	ErrInvalidInterval = errors.New("end time must be after start time")
	// ErrOverlap means the candidate would double-book the owner.
	ErrOverlap = errors.New("stream overlaps with an existing stream")
	// ErrDuplicateURL means the owner already has an entry for this URL.
	ErrDuplicateURL = errors.New("stream is already in the schedule")
)

// ValidateInterval rejects candidates whose end is not strictly after their
// start. Open-ended candidates (nil end) are always valid.
func ValidateInterval(start time.Time, end *time.Time) error {
	if end == nil {
		return nil
	}
	if !end.After(start) {
		return ErrInvalidInterval
	}
	return nil
}

// Overlaps tests two half-open intervals [aStart, aEnd) and [bStart, bEnd).
// Touching boundaries (aEnd == bStart) do not overlap, so back-to-back
// scheduling is allowed.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// HasOverlap reports whether a bounded candidate interval collides with any
// bounded entry in the list. Open-ended entries are exempt from the guard.
func HasOverlap(entries []models.Stream, start, end time.Time) bool {
	for i := range entries {
		e := &entries[i]
		if !e.Bounded() {
			continue
		}
		if Overlaps(e.StartTime, *e.EndTime, start, end) {
			return true
		}
	}
	return false
}

// ContainsURL reports whether the owner already has an entry with this URL.
// The comparison is exact; callers normalize URLs first.
func ContainsURL(entries []models.Stream, url string) bool {
	if url == "" {
		return false
	}
	for i := range entries {
		if entries[i].URL == url {
			return true
		}
	}
	return false
}

// FallbackPolicy decides the end time for imported entries whose metadata
// carries no scheduled end.
type FallbackPolicy struct {
	Synthetic         bool
	SyntheticDuration time.Duration
}

// ResolveEnd applies the policy. A scheduled end always wins; otherwise the
// synthetic policy fabricates start+duration and the null policy leaves the
// entry open-ended.
func (p FallbackPolicy) ResolveEnd(start time.Time, scheduledEnd *time.Time) *time.Time {
	if scheduledEnd != nil {
		return scheduledEnd
	}
	if p.Synthetic {
		end := start.Add(p.SyntheticDuration)
		return &end
	}
	return nil
}

// Day is one row group of the weekly view. Streams is empty (never nil) on
// days with nothing scheduled; rendering turns that into the placeholder row.
type Day struct {
	Date    string          `json:"date"`
	Streams []models.Stream `json:"streams"`
}

// BuildWeek buckets entries into the 7 UTC calendar days starting at now's
// date. Entries outside the window are dropped. Within a day entries are
// ordered by start time; equal starts keep their incoming order.
func BuildWeek(entries []models.Stream, now time.Time) []Day {
	byDate := make(map[string][]models.Stream)
	for _, e := range entries {
		key := e.StartTime.UTC().Format("2006-01-02")
		byDate[key] = append(byDate[key], e)
	}

	today := now.UTC()
	week := make([]Day, 0, WindowDays)
	for i := 0; i < WindowDays; i++ {
		key := today.AddDate(0, 0, i).Format("2006-01-02")
		streams := byDate[key]
		sort.SliceStable(streams, func(a, b int) bool {
			return streams[a].StartTime.Before(streams[b].StartTime)
		})
		if streams == nil {
			streams = []models.Stream{}
		}
		week = append(week, Day{Date: key, Streams: streams})
	}
	return week
}

// CheckCandidate runs the full guard sequence for a single add against an
// owner's existing entries: interval validation, URL dedup, then the overlap
// scan for bounded candidates. It is the in-memory reference form of the
// guards; the authoritative enforcement is the identical sequence
// StreamRepository.CreateGuarded runs in SQL inside the insert transaction,
// where it can see concurrent writers.
func CheckCandidate(entries []models.Stream, url string, start time.Time, end *time.Time) error {
	if err := ValidateInterval(start, end); err != nil {
		return err
	}
	if ContainsURL(entries, url) {
		return ErrDuplicateURL
	}
	if end != nil && HasOverlap(entries, start, *end) {
		return fmt.Errorf("%w: %s", ErrOverlap, start.UTC().Format(time.RFC3339))
	}
	return nil
}
