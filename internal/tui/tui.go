// Package tui renders the projections of a reconciliation session in the
// terminal.
//
// [TUI] runs a bubbletea program with one tab per synchronized category and
// redraws whenever an action reaches the end of the session's bus.
// [Printer] is the line-oriented alternative for non-interactive terminals.
package tui

import (
	"context"
	"sync"

	"github.com/MKhiriev/go-doc-sync/internal/bus"
	"github.com/MKhiriev/go-doc-sync/internal/projection"
	"github.com/MKhiriev/go-doc-sync/models"
	tea "github.com/charmbracelet/bubbletea"
)

// Session is what the terminal view needs from a running session.
type Session interface {
	Views() []*projection.View
	Bus() *bus.Bus
	PeerID() string
}

type TUI struct {
	session Session
	title   string
}

func New(session Session, title string) *TUI {
	return &TUI{session: session, title: title}
}

// Run shows the view until the user quits or ctx is done.
func (t *TUI) Run(ctx context.Context) error {
	n := newNotifier()
	unsubscribe := t.session.Bus().Subscribe(n.observe)
	defer unsubscribe()

	m := newModel(t.session, t.title, n)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// notifier turns bus deliveries into a coalesced redraw signal without
// blocking the bus.
type notifier struct {
	changed chan struct{}

	mu      sync.Mutex
	lastErr error
}

func newNotifier() *notifier {
	return &notifier{changed: make(chan struct{}, 1)}
}

func (n *notifier) observe(a bus.Action) {
	if note, ok := a.(models.Notification); ok && note.Type == models.ModelError {
		n.mu.Lock()
		n.lastErr = note.Err
		n.mu.Unlock()
	}

	select {
	case n.changed <- struct{}{}:
	default:
	}
}

func (n *notifier) err() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	return n.lastErr
}

func (n *notifier) wait() tea.Cmd {
	return func() tea.Msg {
		<-n.changed
		return changedMsg{}
	}
}
