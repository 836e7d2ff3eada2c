package tui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/MKhiriev/go-doc-sync/internal/bus"
	"github.com/MKhiriev/go-doc-sync/internal/projection"
	"github.com/MKhiriev/go-doc-sync/models"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	views []*projection.View
	bus   *bus.Bus
}

func (s *fakeSession) Views() []*projection.View { return s.views }
func (s *fakeSession) Bus() *bus.Bus             { return s.bus }
func (s *fakeSession) PeerID() string            { return "peer-1" }

func newFakeSession() *fakeSession {
	s := &fakeSession{views: []*projection.View{projection.NewView("note"), projection.NewView("task")}}
	s.bus = bus.New(bus.Listener(func(a bus.Action) {
		for _, v := range s.views {
			v.Apply(a)
		}
	}))
	return s
}

func newTestModel(t *testing.T) (model, *fakeSession) {
	t.Helper()

	s := newFakeSession()
	n := newNotifier()
	t.Cleanup(s.bus.Subscribe(n.observe))
	return newModel(s, "docs", n), s
}

func update(t *testing.T, m model, msg tea.Msg) (model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(model)
	require.True(t, ok)
	return out, cmd
}

func doc(id, title string) models.Document {
	return models.Document{ID: id, Rev: "1-abcdef0123456789", Kind: "note", Fields: map[string]any{"title": title}}
}

func TestModel_LoadingThenItems(t *testing.T) {
	m, s := newTestModel(t)
	assert.Contains(t, m.View(), "loading")

	s.bus.Dispatch(models.Loaded("note", []models.Document{doc("n1", "first"), doc("n2", "second")}))
	s.bus.Dispatch(models.CategoryReady("note"))
	m, cmd := update(t, m, changedMsg{})
	assert.NotNil(t, cmd)

	out := m.View()
	assert.Contains(t, out, "note (2)")
	assert.Contains(t, out, "task (0)")
	assert.Contains(t, out, "> n1")
	assert.Contains(t, out, "title=second")
	assert.Contains(t, out, "1-abcde...")
}

func TestModel_Navigation(t *testing.T) {
	m, s := newTestModel(t)
	s.bus.Dispatch(models.Loaded("note", []models.Document{doc("n1", "first"), doc("n2", "second")}))
	s.bus.Dispatch(models.CategoryReady("note"))
	m, _ = update(t, m, changedMsg{})

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.cursor)
	assert.Contains(t, m.View(), "> n2")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.details)
	assert.Contains(t, m.View(), "kind: note")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.details)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, m.tab)
	assert.Equal(t, 0, m.cursor)
	assert.Contains(t, m.View(), "loading")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, 0, m.tab)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, m.cursor)
}

func TestModel_CursorFollowsRemovals(t *testing.T) {
	m, s := newTestModel(t)
	s.bus.Dispatch(models.Loaded("note", []models.Document{doc("n1", "first"), doc("n2", "second")}))
	s.bus.Dispatch(models.CategoryReady("note"))
	m, _ = update(t, m, changedMsg{})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	s.bus.Dispatch(models.RemoveBulk([]models.DocRef{{ID: "n1"}, {ID: "n2"}}, "note", true))
	m, _ = update(t, m, changedMsg{})

	assert.Equal(t, 0, m.cursor)
	assert.False(t, m.details)
	assert.Contains(t, m.View(), "note (0)")
}

func TestModel_ShowsLastError(t *testing.T) {
	m, s := newTestModel(t)

	s.bus.Dispatch(models.Failed(errors.New("boom"), models.OperationInsert))
	m, _ = update(t, m, changedMsg{})

	assert.Contains(t, m.View(), "error: boom")
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t)

	_, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestNotifier_Coalesces(t *testing.T) {
	n := newNotifier()
	n.observe(models.Ready(""))
	n.observe(models.Ready(""))

	assert.IsType(t, changedMsg{}, n.wait()())
	select {
	case <-n.changed:
		t.Fatal("signals must coalesce")
	default:
	}
}

func TestPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Print(models.InsertBulk([]models.Document{doc("n1", "a")}, "note", true))
	p.Print(models.Remove(models.DocRef{ID: "n1", Rev: "2-ff"}, "note", false))
	p.Print(models.CategoryReady("note"))
	p.Print(models.Failed(errors.New("boom"), models.OperationUpdate))

	assert.Equal(t, ""+
		"@@sync/INSERT_BULK_MODELS note remote [n1@1-abcde...]\n"+
		"@@sync/REMOVE_MODEL note local [n1@2-ff]\n"+
		"@@sync/MODEL_INITIALIZED note\n"+
		"@@sync/ERROR OPERATION_UPDATE: boom\n",
		buf.String())
}

func TestShortRev(t *testing.T) {
	assert.Equal(t, "3-0123a...", shortRev("3-0123abcdef"))
	assert.Equal(t, "plain", shortRev("plain"))
}
