// Package metrics provides Prometheus metrics for playback sessions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ddsmovie"

var (
	averageFPS = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "average_fps",
		Help:      "Measured frame publish rate",
	}, []string{"session_id"})

	playRate = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "play_rate",
		Help:      "Current play rate multiplier",
	}, []string{"session_id"})

	currentFrame = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "current_frame",
		Help:      "Index of the play head",
	}, []string{"session_id"})

	indexedFrames = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "index",
		Name:      "frames",
		Help:      "Number of frames in the index",
	}, []string{"session_id"})

	framesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "frames_published_total",
		Help:      "Frames read and published by the streaming engine",
	}, []string{"session_id"})

	framesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "frames_dropped_total",
		Help:      "Published frames overwritten before the consumer took them",
	}, []string{"session_id"})

	readErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "stream",
		Name:      "read_errors_total",
		Help:      "Frame files that could not be read",
	}, []string{"session_id"})

	framesDecoded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "decode",
		Name:      "frames_total",
		Help:      "Frames decoded and uploaded",
	}, []string{"session_id"})

	decodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "decode",
		Name:      "errors_total",
		Help:      "Frames rejected by the container decoder",
	}, []string{"session_id", "code"})

	decodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "decode",
		Name:      "duration_seconds",
		Help:      "Time spent decoding and uploading one frame",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
	}, []string{"session_id"})
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// SetAverageFPS records the measured publish rate for a session.
func SetAverageFPS(sessionID string, fps float64) {
	averageFPS.WithLabelValues(sessionID).Set(fps)
}

// SetPlayRate records the play rate for a session.
func SetPlayRate(sessionID string, rate float64) {
	playRate.WithLabelValues(sessionID).Set(rate)
}

// SetCurrentFrame records the play head position for a session.
func SetCurrentFrame(sessionID string, frame int) {
	currentFrame.WithLabelValues(sessionID).Set(float64(frame))
}

// SetIndexedFrames records the index size for a session.
func SetIndexedFrames(sessionID string, n int) {
	indexedFrames.WithLabelValues(sessionID).Set(float64(n))
}

// IncFramesPublished counts one published frame, and one dropped frame when
// it replaced an unconsumed one.
func IncFramesPublished(sessionID string, dropped bool) {
	framesPublished.WithLabelValues(sessionID).Inc()
	if dropped {
		framesDropped.WithLabelValues(sessionID).Inc()
	}
}

// IncReadErrors counts one unreadable frame file.
func IncReadErrors(sessionID string) {
	readErrors.WithLabelValues(sessionID).Inc()
}

// ObserveDecode counts one decoded frame and its duration.
func ObserveDecode(sessionID string, d time.Duration) {
	framesDecoded.WithLabelValues(sessionID).Inc()
	decodeDuration.WithLabelValues(sessionID).Observe(d.Seconds())
}

// IncDecodeErrors counts one rejected frame by decoder error code.
func IncDecodeErrors(sessionID, code string) {
	decodeErrors.WithLabelValues(sessionID, code).Inc()
}

// DeleteSessionMetrics removes all series for a session.
func DeleteSessionMetrics(sessionID string) {
	labels := prometheus.Labels{"session_id": sessionID}
	averageFPS.Delete(labels)
	playRate.Delete(labels)
	currentFrame.Delete(labels)
	indexedFrames.Delete(labels)
	framesPublished.Delete(labels)
	framesDropped.Delete(labels)
	readErrors.Delete(labels)
	framesDecoded.Delete(labels)
	decodeDuration.Delete(labels)
	decodeErrors.DeletePartialMatch(labels)
}
