package services

import (
	"sync"
	"time"

	"github.com/prudhvinik1/storyline/internal/telemetry"
)

// Keyframe is one step of the reaction pulse: animate to Scale over Duration.
type Keyframe struct {
	Scale    float64
	Duration time.Duration
}

// PulseKeyframes scales the reaction control up, lets it settle below its
// resting size and springs it back to 1.
var PulseKeyframes = []Keyframe{
	{Scale: 1.3, Duration: 120 * time.Millisecond},
	{Scale: 0.9, Duration: 100 * time.Millisecond},
	{Scale: 1.0, Duration: 180 * time.Millisecond},
}

// Animator plays a keyframe sequence on the presentation side.
type Animator interface {
	Animate(keyframes []Keyframe)
}

type reactionKey struct {
	storyID string
	itemID  string
}

// ReactionTracker keeps the "reacted" flag per story item in memory only.
type ReactionTracker struct {
	mu       sync.Mutex
	reacted  map[reactionKey]bool
	animator Animator
}

func NewReactionTracker(animator Animator) *ReactionTracker {
	return &ReactionTracker{reacted: make(map[reactionKey]bool), animator: animator}
}

// Toggle flips the flag and returns the new value. The pulse plays on every
// toggle, whichever way the flag went.
func (r *ReactionTracker) Toggle(storyID, itemID string) bool {
	key := reactionKey{storyID: storyID, itemID: itemID}

	r.mu.Lock()
	r.reacted[key] = !r.reacted[key]
	reacted := r.reacted[key]
	r.mu.Unlock()

	telemetry.IncReactionToggles()
	if r.animator != nil {
		r.animator.Animate(PulseKeyframes)
	}
	return reacted
}

func (r *ReactionTracker) IsReacted(storyID, itemID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reacted[reactionKey{storyID: storyID, itemID: itemID}]
}

// ReactedCount returns how many items of the story currently carry a reaction.
func (r *ReactionTracker) ReactedCount(storyID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for key, on := range r.reacted {
		if on && key.storyID == storyID {
			n++
		}
	}
	return n
}
