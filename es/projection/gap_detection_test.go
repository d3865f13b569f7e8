package projection

import (
	"testing"
	"time"

	"github.com/getpup/streamstore/es"
)

func TestGapDetection_IsGapInStreamPosition(t *testing.T) {
	tests := []struct {
		name           string
		streamPosition int64
		eventPosition  int64
		want           bool
	}{
		{
			name:           "consecutive positions are not a gap",
			streamPosition: 4,
			eventPosition:  5,
			want:           false,
		},
		{
			name:           "first event after position zero is not a gap",
			streamPosition: 0,
			eventPosition:  1,
			want:           false,
		},
		{
			name:           "skipped number is a gap",
			streamPosition: 4,
			eventPosition:  6,
			want:           true,
		},
		{
			name:           "wide hole is a gap",
			streamPosition: 1,
			eventPosition:  100,
			want:           true,
		},
		{
			name:           "repeated position is a gap",
			streamPosition: 5,
			eventPosition:  5,
			want:           true,
		},
	}

	g := NewGapDetection(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.IsGapInStreamPosition(tt.streamPosition, tt.eventPosition); got != tt.want {
				t.Errorf("IsGapInStreamPosition(%d, %d) = %v, want %v", tt.streamPosition, tt.eventPosition, got, tt.want)
			}
		})
	}
}

func TestGapDetection_RetryLadder(t *testing.T) {
	g := NewGapDetection([]int{0, 5, 50}, nil)
	now := time.Now().UTC()
	event := es.NewGenericEvent("something-happened", nil, nil)

	if g.IsRetrying() {
		t.Error("IsRetrying() = true before any retry")
	}

	wantSleeps := []time.Duration{0, 5 * time.Millisecond, 50 * time.Millisecond}
	for i, want := range wantSleeps {
		if !g.ShouldRetryToFillGap(now, event) {
			t.Fatalf("ShouldRetryToFillGap() = false at retry %d, want true", i)
		}
		if got := g.SleepForNextRetry(); got != want {
			t.Errorf("SleepForNextRetry() at retry %d = %v, want %v", i, got, want)
		}
		g.TrackRetry()
	}

	if !g.IsRetrying() {
		t.Error("IsRetrying() = false after retries")
	}
	if g.ShouldRetryToFillGap(now, event) {
		t.Error("ShouldRetryToFillGap() = true after ladder exhausted, want false")
	}
	if got := g.SleepForNextRetry(); got != 0 {
		t.Errorf("SleepForNextRetry() past ladder = %v, want 0", got)
	}

	g.ResetRetries()
	if g.IsRetrying() {
		t.Error("IsRetrying() = true after reset")
	}
	if !g.ShouldRetryToFillGap(now, event) {
		t.Error("ShouldRetryToFillGap() = false after reset, want true")
	}
}

func TestGapDetection_DefaultRetryConfig(t *testing.T) {
	g := NewGapDetection(nil, nil)
	now := time.Now().UTC()
	event := es.NewGenericEvent("something-happened", nil, nil)

	retries := 0
	for g.ShouldRetryToFillGap(now, event) {
		g.TrackRetry()
		retries++
		if retries > 10 {
			t.Fatal("retry ladder did not terminate")
		}
	}
	if retries != 4 {
		t.Errorf("default ladder allows %d retries, want 4", retries)
	}
}

func TestGapDetection_DetectionWindow(t *testing.T) {
	window := 5 * time.Minute
	g := NewGapDetection(nil, &window)
	now := time.Now().UTC()

	recent := es.GenericEventFromData(es.MessageData{
		MessageName: "something-happened",
		CreatedAt:   now.Add(-time.Minute),
	})
	if !g.ShouldRetryToFillGap(now, recent) {
		t.Error("ShouldRetryToFillGap() = false for event inside window, want true")
	}

	stale := es.GenericEventFromData(es.MessageData{
		MessageName: "something-happened",
		CreatedAt:   now.Add(-time.Hour),
	})
	if g.ShouldRetryToFillGap(now, stale) {
		t.Error("ShouldRetryToFillGap() = true for event outside window, want false")
	}
}
