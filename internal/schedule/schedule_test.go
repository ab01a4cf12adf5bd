package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/holosched/backend/internal/models"
)

func ts(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func tsp(value string) *time.Time {
	t := ts(value)
	return &t
}

func entry(url, start string, end *time.Time) models.Stream {
	return models.Stream{
		ID:         uuid.New(),
		StreamerID: uuid.New(),
		Title:      "test stream",
		Platform:   "YouTube",
		URL:        url,
		StartTime:  ts(start),
		EndTime:    end,
	}
}

func TestValidateInterval(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     *time.Time
		wantErr bool
	}{
		{"valid interval", "2024-01-01T10:00:00Z", tsp("2024-01-01T12:00:00Z"), false},
		{"open-ended is valid", "2024-01-01T10:00:00Z", nil, false},
		{"end equals start", "2024-01-01T10:00:00Z", tsp("2024-01-01T10:00:00Z"), true},
		{"end before start", "2024-01-01T10:00:00Z", tsp("2024-01-01T09:00:00Z"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateInterval(ts(tt.start), tt.end)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateInterval() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                       string
		aStart, aEnd, bStart, bEnd string
		want                       bool
	}{
		{"partial overlap", "2024-01-01T10:00:00Z", "2024-01-01T12:00:00Z", "2024-01-01T11:00:00Z", "2024-01-01T13:00:00Z", true},
		{"contained", "2024-01-01T10:00:00Z", "2024-01-01T14:00:00Z", "2024-01-01T11:00:00Z", "2024-01-01T12:00:00Z", true},
		{"identical", "2024-01-01T10:00:00Z", "2024-01-01T12:00:00Z", "2024-01-01T10:00:00Z", "2024-01-01T12:00:00Z", true},
		{"back to back", "2024-01-01T10:00:00Z", "2024-01-01T12:00:00Z", "2024-01-01T12:00:00Z", "2024-01-01T13:00:00Z", false},
		{"disjoint", "2024-01-01T10:00:00Z", "2024-01-01T11:00:00Z", "2024-01-01T15:00:00Z", "2024-01-01T16:00:00Z", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(ts(tt.aStart), ts(tt.aEnd), ts(tt.bStart), ts(tt.bEnd))
			if got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
			// The relation is symmetric
			if Overlaps(ts(tt.bStart), ts(tt.bEnd), ts(tt.aStart), ts(tt.aEnd)) != tt.want {
				t.Errorf("Overlaps() not symmetric for %s", tt.name)
			}
		})
	}
}

// Scenario A: existing 10:00-12:00; 11:00-13:00 rejected, 12:00-13:00 accepted.
func TestCheckCandidate_OverlapScenario(t *testing.T) {
	existing := []models.Stream{
		entry("https://example.com/a", "2024-01-01T10:00:00Z", tsp("2024-01-01T12:00:00Z")),
	}

	err := CheckCandidate(existing, "https://example.com/b", ts("2024-01-01T11:00:00Z"), tsp("2024-01-01T13:00:00Z"))
	if !errors.Is(err, ErrOverlap) {
		t.Errorf("Expected ErrOverlap, got %v", err)
	}

	err = CheckCandidate(existing, "https://example.com/c", ts("2024-01-01T12:00:00Z"), tsp("2024-01-01T13:00:00Z"))
	if err != nil {
		t.Errorf("Expected back-to-back candidate to be accepted, got %v", err)
	}
}

func TestCheckCandidate_InvalidIntervalBeforeScan(t *testing.T) {
	// Even against an empty schedule an inverted interval is rejected.
	err := CheckCandidate(nil, "https://example.com/a", ts("2024-01-01T12:00:00Z"), tsp("2024-01-01T10:00:00Z"))
	if !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("Expected ErrInvalidInterval, got %v", err)
	}
}

func TestCheckCandidate_DuplicateURL(t *testing.T) {
	existing := []models.Stream{
		entry("https://www.youtube.com/watch?v=abc", "2024-01-01T10:00:00Z", tsp("2024-01-01T12:00:00Z")),
	}

	err := CheckCandidate(existing, "https://www.youtube.com/watch?v=abc", ts("2024-02-01T10:00:00Z"), tsp("2024-02-01T12:00:00Z"))
	if !errors.Is(err, ErrDuplicateURL) {
		t.Errorf("Expected ErrDuplicateURL, got %v", err)
	}
}

// P4: open-ended entries never participate in the overlap guard.
func TestHasOverlap_OpenEndedExempt(t *testing.T) {
	existing := []models.Stream{
		entry("https://example.com/live", "2024-01-01T09:00:00Z", nil),
	}

	if HasOverlap(existing, ts("2024-01-01T09:30:00Z"), ts("2024-01-01T11:00:00Z")) {
		t.Error("Open-ended entry should not block a bounded candidate")
	}

	// An open-ended candidate is never checked at all.
	err := CheckCandidate(existing, "https://example.com/other", ts("2024-01-01T09:30:00Z"), nil)
	if err != nil {
		t.Errorf("Open-ended candidate should be accepted, got %v", err)
	}
}

func TestContainsURL_EmptyNeverMatches(t *testing.T) {
	existing := []models.Stream{entry("", "2024-01-01T10:00:00Z", nil)}
	if ContainsURL(existing, "") {
		t.Error("Empty URL must not count as a duplicate")
	}
}

func TestFallbackPolicy_ResolveEnd(t *testing.T) {
	start := ts("2024-01-01T10:00:00Z")
	scheduled := tsp("2024-01-01T11:30:00Z")

	tests := []struct {
		name         string
		policy       FallbackPolicy
		scheduledEnd *time.Time
		want         *time.Time
	}{
		{"scheduled end wins under null policy", FallbackPolicy{}, scheduled, scheduled},
		{"scheduled end wins under synthetic policy", FallbackPolicy{Synthetic: true, SyntheticDuration: 2 * time.Hour}, scheduled, scheduled},
		{"null policy leaves open-ended", FallbackPolicy{}, nil, nil},
		{"synthetic policy adds duration", FallbackPolicy{Synthetic: true, SyntheticDuration: 2 * time.Hour}, nil, tsp("2024-01-01T12:00:00Z")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.policy.ResolveEnd(start, tt.scheduledEnd)
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("ResolveEnd() = %v, want nil", got)
			case tt.want != nil && got == nil:
				t.Errorf("ResolveEnd() = nil, want %v", tt.want)
			case tt.want != nil && !got.Equal(*tt.want):
				t.Errorf("ResolveEnd() = %v, want %v", got, tt.want)
			}
		})
	}
}

// P5: always exactly 7 buckets, today..today+6, regardless of the input.
func TestBuildWeek_WindowShape(t *testing.T) {
	now := ts("2024-03-10T15:30:00Z")
	entries := []models.Stream{
		entry("https://example.com/past", "2024-03-01T10:00:00Z", nil),
		entry("https://example.com/far", "2024-03-20T10:00:00Z", nil), // now+10d, Scenario C
		entry("https://example.com/ok", "2024-03-12T10:00:00Z", nil),
	}

	week := BuildWeek(entries, now)
	if len(week) != WindowDays {
		t.Fatalf("Expected %d days, got %d", WindowDays, len(week))
	}

	for i, day := range week {
		want := ts("2024-03-10T00:00:00Z").AddDate(0, 0, i).Format("2006-01-02")
		if day.Date != want {
			t.Errorf("Day %d: expected date %s, got %s", i, want, day.Date)
		}
	}

	var total int
	for _, day := range week {
		total += len(day.Streams)
	}
	if total != 1 {
		t.Errorf("Expected only the in-window entry to survive, got %d entries", total)
	}
	if len(week[2].Streams) != 1 || week[2].Streams[0].URL != "https://example.com/ok" {
		t.Errorf("Expected the 2024-03-12 bucket to hold the in-window entry")
	}
}

// Scenario D: empty days are present with an empty slice, never absent.
func TestBuildWeek_EmptyDaysPresent(t *testing.T) {
	week := BuildWeek(nil, ts("2024-03-10T00:00:00Z"))
	if len(week) != WindowDays {
		t.Fatalf("Expected %d days, got %d", WindowDays, len(week))
	}
	for _, day := range week {
		if day.Streams == nil {
			t.Errorf("Day %s: expected empty slice, got nil", day.Date)
		}
		if len(day.Streams) != 0 {
			t.Errorf("Day %s: expected no streams", day.Date)
		}
	}
}

func TestBuildWeek_SortsWithinDay(t *testing.T) {
	now := ts("2024-03-10T08:00:00Z")
	a := entry("https://example.com/a", "2024-03-10T18:00:00Z", nil)
	b := entry("https://example.com/b", "2024-03-10T09:00:00Z", nil)
	c := entry("https://example.com/c", "2024-03-10T09:00:00Z", nil) // ties keep input order

	week := BuildWeek([]models.Stream{a, b, c}, now)
	got := week[0].Streams
	if len(got) != 3 {
		t.Fatalf("Expected 3 streams on day 0, got %d", len(got))
	}
	if got[0].URL != b.URL || got[1].URL != c.URL || got[2].URL != a.URL {
		t.Errorf("Expected order b, c, a; got %s, %s, %s", got[0].URL, got[1].URL, got[2].URL)
	}
}

func TestBuildWeek_BucketsByUTCDate(t *testing.T) {
	now := ts("2024-03-10T23:00:00Z")
	// 23:30 UTC on the 10th belongs to day 0 even though many local zones
	// would already call it the 11th.
	e := entry("https://example.com/a", "2024-03-10T23:30:00Z", nil)

	week := BuildWeek([]models.Stream{e}, now)
	if len(week[0].Streams) != 1 {
		t.Errorf("Expected the entry in the first day bucket")
	}
	if len(week[1].Streams) != 0 {
		t.Errorf("Expected the second day bucket to be empty")
	}
}
