// Package playback walks a feed of stories item by item.
//
// The Engine is a small state machine (Playing, Paused, Exited) over a
// (story index, item index) cursor. Every transition re-arms a fixed
// duration Countdown while playing; when it runs out the engine advances
// on its own. Resuming after a pause starts the full duration again, it
// does not continue from the time already elapsed.
package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/prudhvinik1/storyline/internal/models"
	"github.com/prudhvinik1/storyline/internal/telemetry"
)

// DefaultItemDuration is how long an item is shown before auto-advance.
const DefaultItemDuration = 5000 * time.Millisecond

// The overflow-menu button sits in the top-right corner of the surface;
// taps inside this box never toggle pause.
const (
	OverflowRegionWidth  = 72.0
	OverflowRegionHeight = 72.0
)

var (
	ErrNoStoryID  = errors.New("no story id supplied")
	ErrEmptyStory = errors.New("story has no items")
)

type State int

const (
	Playing State = iota
	Paused
	Exited
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Exited:
		return "exited"
	}
	return "unknown"
}

// Navigator is the navigation controller the engine leaves through.
type Navigator interface {
	GoBack()
	CanGoBack() bool
	ReplaceWithRoot()
}

// ViewRecorder receives a view each time a story becomes visible.
type ViewRecorder interface {
	TrackView(ctx context.Context, storyID, viewerID, viewerName, viewerAvatarRef string)
}

// Viewer is the identity watching the feed.
type Viewer struct {
	ID        string
	Name      string
	AvatarRef string
}

type Snapshot struct {
	StoryIndex int
	ItemIndex  int
	State      State
	Story      models.Story
	Item       models.StoryItem
}

type Options struct {
	Navigator    Navigator
	Views        ViewRecorder
	Viewer       Viewer
	ItemDuration time.Duration
	Scheduler    Scheduler
	// OnChange is called with the new snapshot after every transition. It
	// runs outside the engine lock and may call back into the engine.
	OnChange func(Snapshot)
	Logger   *slog.Logger
}

type Engine struct {
	mu         sync.Mutex
	ctx        context.Context
	stories    []models.Story
	storyIndex int
	itemIndex  int
	state      State
	armSeq     uint64
	// release unregisters the context hook installed by Start.
	release func() bool

	countdown *Countdown
	duration  time.Duration
	nav       Navigator
	views     ViewRecorder
	viewer    Viewer
	onChange  func(Snapshot)
	logger    *slog.Logger
}

// effects are collected under the lock and run after it is released.
type effects struct {
	ctx      context.Context
	track    *models.Story
	exit     bool
	release  func() bool
	snapshot *Snapshot
}

// New resolves startStoryID within stories. An id that is not present
// starts playback at the first story. An empty id, or a resolved story
// with no items, yields an error the caller renders as a terminal state.
func New(stories []models.Story, startStoryID string, opts Options) (*Engine, error) {
	if startStoryID == "" {
		return nil, ErrNoStoryID
	}
	if len(stories) == 0 {
		return nil, ErrEmptyStory
	}

	start := 0
	for i, s := range stories {
		if s.ID == startStoryID {
			start = i
			break
		}
	}
	if !stories[start].Playable() {
		return nil, ErrEmptyStory
	}

	if opts.ItemDuration <= 0 {
		opts.ItemDuration = DefaultItemDuration
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Engine{
		ctx:        context.Background(),
		stories:    stories,
		storyIndex: start,
		state:      Playing,
		countdown:  NewCountdown(opts.Scheduler),
		duration:   opts.ItemDuration,
		nav:        opts.Navigator,
		views:      opts.Views,
		viewer:     opts.Viewer,
		onChange:   opts.OnChange,
		logger:     opts.Logger.With(slog.String("component", "playback")),
	}, nil
}

// Start shows the first item: it records the view, arms the countdown and
// publishes the initial snapshot. ctx scopes the session; when it is done
// the countdown is cancelled as if the surface had been unmounted.
func (e *Engine) Start(ctx context.Context) {
	release := context.AfterFunc(ctx, e.Stop)

	e.mu.Lock()
	prev := e.release
	e.release = release
	e.ctx = ctx
	story := e.stories[e.storyIndex]
	fx := effects{ctx: ctx, track: &story}
	e.rearmLocked()
	e.snapshotLocked(&fx)
	e.mu.Unlock()

	if prev != nil {
		prev()
	}
	e.apply(fx)
}

// Next moves to the following item, crossing into the next story when the
// current one is done, and exits after the last item of the last story.
func (e *Engine) Next() {
	telemetry.IncPlaybackTransition("next")
	e.transition(e.nextLocked)
}

// Previous moves back one item, into the last item of the previous story
// when needed. At the very first item it does nothing.
func (e *Engine) Previous() {
	telemetry.IncPlaybackTransition("previous")
	e.transition(func(fx *effects) bool {
		if e.itemIndex > 0 {
			e.itemIndex--
			return true
		}
		prev := e.playableFrom(e.storyIndex-1, -1)
		if prev < 0 {
			return false
		}
		e.storyIndex = prev
		e.itemIndex = len(e.stories[prev].Items) - 1
		story := e.stories[prev]
		fx.track = &story
		return true
	})
}

func (e *Engine) Pause() {
	e.transition(func(fx *effects) bool {
		if e.state != Playing {
			return false
		}
		telemetry.IncPlaybackTransition("pause")
		e.state = Paused
		return true
	})
}

// Resume restarts the countdown with the full item duration.
func (e *Engine) Resume() {
	e.transition(func(fx *effects) bool {
		if e.state != Paused {
			return false
		}
		telemetry.IncPlaybackTransition("resume")
		e.state = Playing
		return true
	})
}

func (e *Engine) TogglePause() {
	e.transition(func(fx *effects) bool {
		switch e.state {
		case Playing:
			telemetry.IncPlaybackTransition("pause")
			e.state = Paused
		case Paused:
			telemetry.IncPlaybackTransition("resume")
			e.state = Playing
		default:
			return false
		}
		return true
	})
}

// Tap handles a tap on the playback surface of the given size. Taps in
// the overflow-menu corner are left to that control and return false.
func (e *Engine) Tap(x, y, width, height float64) bool {
	if InOverflowRegion(x, y, width, height) {
		return false
	}
	e.TogglePause()
	return true
}

func InOverflowRegion(x, y, width, height float64) bool {
	return x >= width-OverflowRegionWidth && x <= width && y >= 0 && y <= OverflowRegionHeight
}

// Close leaves playback on explicit request.
func (e *Engine) Close() {
	telemetry.IncPlaybackTransition("close")
	e.transition(func(fx *effects) bool {
		e.exitLocked(fx)
		return true
	})
}

// Stop cancels the countdown without leaving; used when the surface goes
// away underneath the engine.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.armSeq++
	e.countdown.Cancel()
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.currentLocked()
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// expire is the countdown callback. seq ties it to the arm that scheduled
// it so a callback racing with a manual transition is ignored.
func (e *Engine) expire(seq uint64) {
	e.transition(func(fx *effects) bool {
		if seq != e.armSeq || e.state != Playing {
			return false
		}
		telemetry.IncPlaybackTransition("auto_advance")
		return e.nextLocked(fx)
	})
}

func (e *Engine) nextLocked(fx *effects) bool {
	if e.itemIndex < len(e.stories[e.storyIndex].Items)-1 {
		e.itemIndex++
		return true
	}
	next := e.playableFrom(e.storyIndex+1, 1)
	if next < 0 {
		e.exitLocked(fx)
		return true
	}
	e.storyIndex = next
	e.itemIndex = 0
	story := e.stories[next]
	fx.track = &story
	return true
}

// transition runs step under the lock. When step reports a change the
// countdown is re-armed (or cancelled) and observers are notified.
func (e *Engine) transition(step func(fx *effects) bool) {
	e.mu.Lock()
	if e.state == Exited {
		e.mu.Unlock()
		return
	}
	fx := effects{ctx: e.ctx}
	changed := step(&fx)
	if changed {
		e.rearmLocked()
		e.snapshotLocked(&fx)
	}
	e.mu.Unlock()

	e.apply(fx)
}

func (e *Engine) rearmLocked() {
	e.armSeq++
	if e.state != Playing {
		e.countdown.Cancel()
		return
	}
	seq := e.armSeq
	e.countdown.Arm(e.duration, func() { e.expire(seq) })
}

func (e *Engine) exitLocked(fx *effects) {
	e.state = Exited
	fx.exit = true
	fx.track = nil
	fx.release = e.release
	e.release = nil
}

func (e *Engine) snapshotLocked(fx *effects) {
	snap := e.currentLocked()
	fx.snapshot = &snap
}

func (e *Engine) currentLocked() Snapshot {
	story := e.stories[e.storyIndex]
	return Snapshot{
		StoryIndex: e.storyIndex,
		ItemIndex:  e.itemIndex,
		State:      e.state,
		Story:      story,
		Item:       story.Items[e.itemIndex],
	}
}

// playableFrom returns the first story index with items starting at i and
// stepping by dir, or -1.
func (e *Engine) playableFrom(i, dir int) int {
	for ; i >= 0 && i < len(e.stories); i += dir {
		if e.stories[i].Playable() {
			return i
		}
	}
	return -1
}

func (e *Engine) apply(fx effects) {
	if fx.track != nil && e.views != nil && e.viewer.ID != "" {
		e.views.TrackView(fx.ctx, fx.track.ID, e.viewer.ID, e.viewer.Name, e.viewer.AvatarRef)
	}
	if fx.release != nil {
		fx.release()
	}
	if fx.exit {
		e.logger.Debug("playback exited")
		if e.nav != nil {
			if e.nav.CanGoBack() {
				e.nav.GoBack()
			} else {
				e.nav.ReplaceWithRoot()
			}
		}
	}
	if fx.snapshot != nil && e.onChange != nil {
		e.onChange(*fx.snapshot)
	}
}
