// Package session drives one passage-analysis conversation: selection,
// lens choice, streamed replies, follow-ups and teardown.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/arin/locus/internal/ai"
	"github.com/arin/locus/internal/config"
	"github.com/arin/locus/internal/lens"
	"github.com/arin/locus/internal/reader"
)

var (
	// ErrNoSelection is returned when a lens is chosen before any passage
	// has been selected.
	ErrNoSelection = errors.New("no passage selected")
	// ErrSessionActive is returned when a lens is chosen while a session
	// is already open. Clear it or make a new selection first.
	ErrSessionActive = errors.New("an analysis session is already open")
)

// State is the controller's lifecycle position.
type State int

const (
	StateIdle State = iota
	StateAwaitingSelection
	StateActiveIdle
	StateRequesting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingSelection:
		return "awaiting-selection"
	case StateActiveIdle:
		return "active"
	case StateRequesting:
		return "requesting"
	}
	return "unknown"
}

// Streamer is the query engine as seen by the controller. Stream is called
// with the controller locked and must return without blocking.
type Streamer interface {
	Stream(ctx context.Context, req ai.QueryRequest) <-chan ai.StreamDelta
}

// Listener receives live updates for the session identified by gen.
// Methods run with the controller locked and must not call back into it.
type Listener interface {
	OnFragment(gen uint64, text string)
	OnCommit(gen uint64, turn ai.Turn)
}

// NopListener ignores all updates.
type NopListener struct{}

func (NopListener) OnFragment(uint64, string) {}
func (NopListener) OnCommit(uint64, ai.Turn) {}

// RequestKind says what triggered a request.
type RequestKind string

const (
	KindLens     RequestKind = "lens"
	KindFollowUp RequestKind = "followup"
	KindScan     RequestKind = "scan"
)

// Outcome summarises a finished request. Abandoned requests were cleared or
// superseded before they completed; their late fragments were dropped.
type Outcome struct {
	Generation uint64
	Kind       RequestKind
	Lens       string
	Selection  reader.Selection
	Fragments  int
	Elapsed    time.Duration
	Err        error
	Abandoned  bool
}

// Options configures a Controller.
type Options struct {
	Profile      config.Profile
	Book         reader.Book
	Lenses       *lens.Catalog
	SystemPrompt string
	Listener     Listener
	// OnFinish, if set, is called after every request, outside the lock.
	OnFinish     func(Outcome)
	Logger       *slog.Logger
}

// Snapshot is a point-in-time copy of session state.
type Snapshot struct {
	Generation   uint64
	State        State
	Selection    reader.Selection
	Locator      string
	Lens         string
	Conversation []ai.Turn
	Pending      string
	Busy         bool
}

// Controller owns the session. All mutation happens under mu, and each
// fragment is applied only if its generation is still current.
type Controller struct {
	engine Streamer
	opts   Options

	mu           sync.Mutex
	generation   uint64
	state        State
	selection    reader.Selection
	locator      string
	lensID       string
	conversation []ai.Turn
	pending      strings.Builder
}

// New returns an idle controller.
func New(engine Streamer, opts Options) *Controller {
	if opts.Lenses == nil {
		opts.Lenses = lens.Builtin()
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = lens.SystemPrompt
	}
	if opts.Listener == nil {
		opts.Listener = NopListener{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Controller{engine: engine, opts: opts}
}

// Apply routes a rendition event.
func (c *Controller) Apply(ev reader.Event) {
	switch ev.Kind {
	case reader.Selected:
		c.SelectText(ev.Selection)
	case reader.Relocated:
		c.Relocate(ev.Selection.Locator)
	}
}

// SelectText records sel as the pending selection. A selection made while
// a session is open supersedes that session, as if Clear had been called
// first. Blank selections are ignored.
func (c *Controller) SelectText(sel reader.Selection) bool {
	if sel.Empty() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateActiveIdle || c.state == StateRequesting {
		c.resetLocked()
	}
	c.selection = sel
	if sel.Locator != "" {
		c.locator = sel.Locator
	}
	c.state = StateAwaitingSelection
	return true
}

// Relocate records the reader's current location.
func (c *Controller) Relocate(locator string) {
	c.mu.Lock()
	c.locator = locator
	c.mu.Unlock()
}

// ChooseLens opens a session on the pending selection. The returned
// channel is closed once the reply has been committed or abandoned.
func (c *Controller) ChooseLens(ctx context.Context, lensID string) (<-chan struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateIdle:
		return nil, ErrNoSelection
	case StateActiveIdle, StateRequesting:
		return nil, ErrSessionActive
	}
	return c.openLocked(ctx, lensID, KindLens)
}

// ScanView opens a session on the visible page text at the current
// location, replacing any open session.
func (c *Controller) ScanView(ctx context.Context, visibleText string) (<-chan struct{}, error) {
	sel := reader.Selection{Text: visibleText}
	if sel.Empty() {
		return nil, ErrNoSelection
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateActiveIdle || c.state == StateRequesting {
		c.resetLocked()
	}
	sel.Locator = c.locator
	c.selection = sel
	return c.openLocked(ctx, lens.ScanID, KindScan)
}

func (c *Controller) openLocked(ctx context.Context, lensID string, kind RequestKind) (<-chan struct{}, error) {
	prompt, err := c.opts.Lenses.Prompt(lensID, c.selection.Text, c.opts.Book.Title)
	if err != nil {
		return nil, err
	}
	c.generation++
	c.lensID = lensID
	c.conversation = []ai.Turn{{Role: ai.RoleUser, Content: prompt}}
	return c.dispatchLocked(ctx, kind), nil
}

// SendFollowUp appends a user turn and resends the full history. It is a
// no-op, returning false, while a reply is still streaming or when no
// session is open.
func (c *Controller) SendFollowUp(ctx context.Context, text string) (<-chan struct{}, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActiveIdle {
		return nil, false
	}
	c.conversation = append(c.conversation, ai.Turn{Role: ai.RoleUser, Content: text})
	return c.dispatchLocked(ctx, KindFollowUp), true
}

// Clear discards the session unconditionally. An in-flight request is not
// cancelled; its remaining fragments are dropped.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
}

func (c *Controller) resetLocked() {
	c.generation++
	c.state = StateIdle
	c.selection = reader.Selection{}
	c.lensID = ""
	c.conversation = nil
	c.pending.Reset()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		Generation:   c.generation,
		State:        c.state,
		Selection:    c.selection,
		Locator:      c.locator,
		Lens:         c.lensID,
		Conversation: append([]ai.Turn(nil), c.conversation...),
		Pending:      c.pending.String(),
		Busy:         c.state == StateRequesting,
	}
}

// LastReply returns the most recent committed assistant turn.
func (c *Controller) LastReply() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.conversation) - 1; i >= 0; i-- {
		if c.conversation[i].Role == ai.RoleAssistant {
			return c.conversation[i].Content, true
		}
	}
	return "", false
}

func (c *Controller) dispatchLocked(ctx context.Context, kind RequestKind) <-chan struct{} {
	gen := c.generation
	c.state = StateRequesting
	c.pending.Reset()

	req := c.opts.Profile.Request(c.opts.SystemPrompt, append([]ai.Turn(nil), c.conversation...))
	out := Outcome{Generation: gen, Kind: kind, Lens: c.lensID, Selection: c.selection}

	c.opts.Logger.Debug("dispatching request",
		"generation", gen, "kind", string(kind), "lens", c.lensID, "turns", len(req.Conversation))

	done := make(chan struct{})
	go c.consume(c.engine.Stream(ctx, req), out, time.Now(), done)
	return done
}

// consume drains one reply. Every apply step re-checks liveness so a
// cleared session is never touched again.
func (c *Controller) consume(deltas <-chan ai.StreamDelta, out Outcome, start time.Time, done chan<- struct{}) {
	defer close(done)

	for d := range deltas {
		if d.Err != nil {
			out.Err = d.Err
		}
		if d.Token == "" {
			continue
		}
		c.mu.Lock()
		if !c.liveLocked(out.Generation) {
			c.mu.Unlock()
			out.Abandoned = true
			continue
		}
		c.pending.WriteString(d.Token)
		out.Fragments++
		c.opts.Listener.OnFragment(out.Generation, d.Token)
		c.mu.Unlock()
	}

	c.mu.Lock()
	if c.liveLocked(out.Generation) {
		turn := ai.Turn{Role: ai.RoleAssistant, Content: c.pending.String()}
		c.conversation = append(c.conversation, turn)
		c.pending.Reset()
		c.state = StateActiveIdle
		c.opts.Listener.OnCommit(out.Generation, turn)
	} else {
		out.Abandoned = true
	}
	c.mu.Unlock()

	out.Elapsed = time.Since(start)
	if out.Abandoned {
		c.opts.Logger.Debug("request abandoned", "generation", out.Generation)
	}
	if c.opts.OnFinish != nil {
		c.opts.OnFinish(out)
	}
}

func (c *Controller) liveLocked(gen uint64) bool {
	return c.generation == gen && c.state == StateRequesting
}
