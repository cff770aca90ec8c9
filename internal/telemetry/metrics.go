// Package telemetry provides the Prometheus metrics recorded by the story services.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	ItemsCreated        prometheus.Counter
	ViewsTracked        prometheus.Counter
	ViewsIgnored        prometheus.Counter
	PersistenceFailures *prometheus.CounterVec
	ReactionToggles     prometheus.Counter
	PlaybackTransitions *prometheus.CounterVec
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		ItemsCreated = promauto.NewCounter(prometheus.CounterOpts{Name: "story_items_created_total", Help: "Number of story items published"})
		ViewsTracked = promauto.NewCounter(prometheus.CounterOpts{Name: "story_views_tracked_total", Help: "Number of story views persisted"})
		ViewsIgnored = promauto.NewCounter(prometheus.CounterOpts{Name: "story_views_ignored_total", Help: "Number of views dropped because the viewer is not a known contact"})
		PersistenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{Name: "story_persistence_failures_total", Help: "Storage failures swallowed by the view tracker"}, []string{"op"})
		ReactionToggles = promauto.NewCounter(prometheus.CounterOpts{Name: "story_reaction_toggles_total", Help: "Number of reaction toggles"})
		PlaybackTransitions = promauto.NewCounterVec(prometheus.CounterOpts{Name: "story_playback_transitions_total", Help: "Playback engine transitions by kind"}, []string{"transition"})
	})
}

// IncItemsCreated is safe to call before Init; it is a no-op then.
func IncItemsCreated() {
	if ItemsCreated != nil {
		ItemsCreated.Inc()
	}
}

func IncViewsTracked() {
	if ViewsTracked != nil {
		ViewsTracked.Inc()
	}
}

func IncViewsIgnored() {
	if ViewsIgnored != nil {
		ViewsIgnored.Inc()
	}
}

func IncPersistenceFailure(op string) {
	if PersistenceFailures != nil {
		PersistenceFailures.WithLabelValues(op).Inc()
	}
}

func IncReactionToggles() {
	if ReactionToggles != nil {
		ReactionToggles.Inc()
	}
}

func IncPlaybackTransition(transition string) {
	if PlaybackTransitions != nil {
		PlaybackTransitions.WithLabelValues(transition).Inc()
	}
}
