package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/prudhvinik1/storyline/internal/demo"
	"github.com/prudhvinik1/storyline/internal/models"
	"github.com/prudhvinik1/storyline/internal/playback"
	"github.com/prudhvinik1/storyline/internal/repositories"
	"github.com/prudhvinik1/storyline/internal/services"
)

const playHelp = "commands: n next, p previous, t pause/resume, r react, v viewers, q quit"

type PlayOptions struct {
	*RootOptions
	Story    string
	Viewer   string
	Interval time.Duration
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the demo feed in the terminal",
		Long: `Play the seeded demo feed item by item.

Items advance on their own after the interval. Type a command and press
enter to navigate:

  ` + playHelp + `

--story accepts a story id or an owner id. An unknown id starts at the
first story of the feed.

Example:
  storyctl play --story bob --viewer alice
  storyctl play --interval 2s`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Story, "story", "alice", "story or owner id to start with")
	cmd.Flags().StringVar(&opts.Viewer, "viewer", "", "viewer id recorded against each story (defaults to LOCAL_USER_ID)")
	cmd.Flags().DurationVar(&opts.Interval, "interval", 0, "time each item is shown (defaults to ADVANCE_INTERVAL)")

	return cmd
}

func runPlay(ctx context.Context, opts *PlayOptions, in io.Reader, out io.Writer) error {
	cfg := opts.Config
	logger := opts.Logger

	store := services.NewStoryStore(cfg.LocalUserID, cfg.LocalAvatar)
	if err := demo.SeedFeed(store); err != nil {
		return err
	}

	local := models.Contact{ID: cfg.LocalUserID, Name: "Me", AvatarRef: cfg.LocalAvatar}
	contacts := repositories.NewMemoryContactDirectory(append(demo.Contacts(), local)...)
	kv := repositories.NewMemoryKeyValueStore()
	tracker := services.NewViewTracker(
		repositories.NewKVViewRepository(kv),
		repositories.NewKVPresenceRepository(kv),
		contacts,
		logger,
	)

	viewer := playback.Viewer{ID: opts.Viewer}
	if viewer.ID == "" {
		viewer.ID = cfg.LocalUserID
	}
	if c, err := contacts.Lookup(ctx, viewer.ID); err == nil {
		viewer.Name = c.Name
		viewer.AvatarRef = c.AvatarRef
	}

	w := &syncWriter{w: out}
	reactions := services.NewReactionTracker(pulsePrinter{w})
	nav := newTerminalNavigator()

	feed := store.Feed()
	engine, err := playback.New(feed, resolveStoryID(feed, opts.Story), playback.Options{
		Navigator:    nav,
		Views:        tracker,
		Viewer:       viewer,
		ItemDuration: durationOr(opts.Interval, cfg.AdvanceInterval),
		OnChange: func(s playback.Snapshot) {
			w.printf("%s\n", describe(s, store.Now(), reactions.IsReacted(s.Story.ID, s.Item.ID)))
		},
		Logger: logger,
	})
	if err != nil {
		return fmt.Errorf("nothing to play: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w.printf("%s\n", playHelp)
	lines := readLines(ctx, in)
	engine.Start(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-nav.done:
			printViewSummary(ctx, w, tracker, reactions, feed)
			return nil
		case line, ok := <-lines:
			if !ok {
				lines = nil
				engine.Close()
				continue
			}
			handleCommand(ctx, strings.TrimSpace(line), engine, reactions, tracker, w)
		}
	}
}

func handleCommand(
	ctx context.Context,
	command string,
	engine *playback.Engine,
	reactions *services.ReactionTracker,
	tracker *services.ViewTracker,
	w *syncWriter,
) {
	switch command {
	case "n":
		engine.Next()
	case "p":
		engine.Previous()
	case "t":
		engine.TogglePause()
	case "q":
		engine.Close()
	case "r":
		s := engine.Snapshot()
		if reactions.Toggle(s.Story.ID, s.Item.ID) {
			w.printf("reacted to %s\n", s.Item.ID)
		} else {
			w.printf("reaction removed from %s\n", s.Item.ID)
		}
	case "v":
		s := engine.Snapshot()
		viewers := tracker.GetViewersFor(ctx, s.Story.ID)
		if len(viewers) == 0 {
			w.printf("no viewers yet\n")
		}
		for _, v := range viewers {
			w.printf("  %s  %s  %s\n", v.Name, v.Label, models.PresenceStatusOf(v.Online))
		}
	case "":
	default:
		w.printf("%s\n", playHelp)
	}
}

func describe(s playback.Snapshot, now time.Time, reacted bool) string {
	content := fmt.Sprintf("%q", s.Item.Text)
	if s.Item.Kind.IsMedia() {
		content = fmt.Sprintf("%s %s", s.Item.Kind, s.Item.MediaURI)
	}
	line := fmt.Sprintf("[%s %d/%d] %s  %s  (%s)",
		s.Story.OwnerID, s.ItemIndex+1, len(s.Story.Items), content, s.Item.Label(now), s.State)
	if reacted {
		line += "  *reacted*"
	}
	return line
}

func printViewSummary(
	ctx context.Context,
	w *syncWriter,
	tracker *services.ViewTracker,
	reactions *services.ReactionTracker,
	feed []models.Story,
) {
	w.printf("playback finished\n")
	for _, story := range feed {
		n := tracker.GetViewCount(ctx, story.ID)
		if n == 0 {
			continue
		}
		if r := reactions.ReactedCount(story.ID); r > 0 {
			w.printf("  %s: %d viewer(s), %d reacted\n", story.OwnerID, n, r)
		} else {
			w.printf("  %s: %d viewer(s)\n", story.OwnerID, n)
		}
	}
}

// resolveStoryID maps an owner id to the id of that owner's story.
func resolveStoryID(feed []models.Story, ref string) string {
	for _, story := range feed {
		if story.OwnerID == ref {
			return story.ID
		}
	}
	return ref
}

func readLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// terminalNavigator treats the shell as the screen underneath playback.
type terminalNavigator struct {
	once sync.Once
	done chan struct{}
}

func newTerminalNavigator() *terminalNavigator {
	return &terminalNavigator{done: make(chan struct{})}
}

func (n *terminalNavigator) GoBack()          { n.once.Do(func() { close(n.done) }) }
func (n *terminalNavigator) CanGoBack() bool  { return true }
func (n *terminalNavigator) ReplaceWithRoot() { n.GoBack() }

type pulsePrinter struct {
	w *syncWriter
}

func (p pulsePrinter) Animate(keyframes []services.Keyframe) {
	steps := make([]string, 0, len(keyframes))
	for _, k := range keyframes {
		steps = append(steps, fmt.Sprintf("x%.1f", k.Scale))
	}
	p.w.printf("pulse %s\n", strings.Join(steps, " "))
}

// syncWriter serializes output from the input loop and the countdown.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) printf(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}
