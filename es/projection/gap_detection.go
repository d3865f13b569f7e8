package projection

import (
	"time"

	"github.com/getpup/streamstore/es"
)

// defaultRetryConfig is the sleep ladder, in milliseconds, used when no
// retry configuration is given.
var defaultRetryConfig = []int{0, 5, 50, 500}

// GapDetection decides whether a hole in a stream's event numbering should
// be waited out. Event numbers are assigned on insert, so a transaction that
// is still open (or was rolled back) can leave a temporarily or permanently
// missing number. When a gap is detected the projector sleeps and re-reads
// instead of advancing past an event that may still become visible.
//
// The retry configuration is a sleep ladder in milliseconds; one retry is
// consumed per re-read. An optional detection window limits gap handling to
// recent events: events older than the window are assumed final and their
// gaps are skipped without retrying.
type GapDetection struct {
	detectionWindow *time.Duration
	retryConfig     []int
	retries         int
}

// NewGapDetection returns a GapDetection with the given sleep ladder and
// detection window. A nil retryConfig uses the 0ms, 5ms, 50ms, 500ms
// default. A nil detectionWindow retries regardless of event age.
func NewGapDetection(retryConfig []int, detectionWindow *time.Duration) *GapDetection {
	if retryConfig == nil {
		retryConfig = defaultRetryConfig
	}
	return &GapDetection{
		retryConfig:     retryConfig,
		detectionWindow: detectionWindow,
	}
}

// IsGapInStreamPosition reports whether the event number does not directly
// follow the last processed position.
func (g *GapDetection) IsGapInStreamPosition(streamPosition, eventPosition int64) bool {
	return eventPosition != streamPosition+1
}

// IsRetrying reports whether at least one retry has been consumed since the
// last reset.
func (g *GapDetection) IsRetrying() bool {
	return g.retries > 0
}

// ShouldRetryToFillGap reports whether the gap before the given event is
// still worth waiting for. It returns false once the retry ladder is
// exhausted, or when a detection window is set and the event is older than
// the window.
func (g *GapDetection) ShouldRetryToFillGap(now time.Time, event es.Message) bool {
	if g.detectionWindow != nil && event.CreatedAt().Add(*g.detectionWindow).Before(now) {
		return false
	}
	return g.retries < len(g.retryConfig)
}

// SleepForNextRetry returns the sleep before the next re-read. Past the end
// of the ladder it returns zero.
func (g *GapDetection) SleepForNextRetry() time.Duration {
	if g.retries >= len(g.retryConfig) {
		return 0
	}
	return time.Duration(g.retryConfig[g.retries]) * time.Millisecond
}

// TrackRetry consumes one retry.
func (g *GapDetection) TrackRetry() {
	g.retries++
}

// ResetRetries rewinds the ladder after a gapless batch.
func (g *GapDetection) ResetRetries() {
	g.retries = 0
}
