package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-doc-sync/models"
)

type testAction string

func (a testAction) ActionType() string { return string(a) }

func tagger(tag string, trace *[]string) Middleware {
	return func(API) func(Dispatch) Dispatch {
		return func(next Dispatch) Dispatch {
			return func(a Action) {
				*trace = append(*trace, tag+":"+a.ActionType())
				next(a)
			}
		}
	}
}

func TestBus_ChainOrder(t *testing.T) {
	var trace []string
	b := New(tagger("first", &trace), tagger("second", &trace))
	rec := NewRecorder()
	rec.Attach(b)

	b.Dispatch(testAction("ping"))

	assert.Equal(t, []string{"first:ping", "second:ping"}, trace)
	assert.Equal(t, []Action{testAction("ping")}, rec.Actions())
}

func TestBus_MiddlewareCanReplaceAndDrop(t *testing.T) {
	rewrite := func(API) func(Dispatch) Dispatch {
		return func(next Dispatch) Dispatch {
			return func(a Action) {
				switch a.ActionType() {
				case "drop":
				case "swap":
					next(testAction("swapped"))
				default:
					next(a)
				}
			}
		}
	}

	b := New(rewrite)
	rec := NewRecorder()
	rec.Attach(b)

	b.Dispatch(testAction("drop"))
	b.Dispatch(testAction("swap"))
	b.Dispatch(testAction("keep"))
	b.Dispatch(nil)

	assert.Equal(t, []Action{testAction("swapped"), testAction("keep")}, rec.Actions())
}

func TestBus_APIDispatchReentersChain(t *testing.T) {
	var trace []string
	echo := func(api API) func(Dispatch) Dispatch {
		return func(next Dispatch) Dispatch {
			return func(a Action) {
				next(a)
				if a.ActionType() == "request" {
					api.Dispatch(testAction("reply"))
				}
			}
		}
	}

	b := New(tagger("log", &trace), echo)
	b.Dispatch(testAction("request"))

	assert.Equal(t, []string{"log:request", "log:reply"}, trace)
}

func TestBus_DispatchDuringBuildWaitsForChain(t *testing.T) {
	started := make(chan struct{})
	early := func(api API) func(Dispatch) Dispatch {
		go func() {
			close(started)
			api.Dispatch(testAction("early"))
		}()
		<-started
		return func(next Dispatch) Dispatch { return next }
	}

	var (
		mu    sync.Mutex
		trace []string
	)
	counting := func(API) func(Dispatch) Dispatch {
		return func(next Dispatch) Dispatch {
			return func(a Action) {
				mu.Lock()
				trace = append(trace, a.ActionType())
				mu.Unlock()
				next(a)
			}
		}
	}

	New(early, counting)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(trace) == 1 && trace[0] == "early"
	}, time.Second, 5*time.Millisecond)
}

func TestListener(t *testing.T) {
	rec := NewRecorder()
	drop := func(API) func(Dispatch) Dispatch {
		return func(next Dispatch) Dispatch {
			return func(a Action) {
				if a.ActionType() != "drop" {
					next(a)
				}
			}
		}
	}

	b := New(drop, Listener(rec.Record))
	b.Dispatch(testAction("drop"))
	b.Dispatch(testAction("keep"))

	assert.Equal(t, []Action{testAction("keep")}, rec.Actions())
}

func TestBus_Unsubscribe(t *testing.T) {
	b := New()
	var first, second []Action

	unsubscribe := b.Subscribe(func(a Action) { first = append(first, a) })
	b.Subscribe(func(a Action) { second = append(second, a) })

	b.Dispatch(testAction("a"))
	unsubscribe()
	unsubscribe()
	b.Dispatch(testAction("b"))

	assert.Equal(t, []Action{testAction("a")}, first)
	assert.Equal(t, []Action{testAction("a"), testAction("b")}, second)
}

func TestRecorder_Notifications(t *testing.T) {
	rec := NewRecorder()
	rec.Record(testAction("other"))
	rec.Record(models.Ready("session"))

	notifications := rec.Notifications()
	require.Len(t, notifications, 1)
	assert.Equal(t, models.Initialized, notifications[0].Type)

	rec.Reset()
	assert.Empty(t, rec.Actions())
}

func TestRecorder_WaitFor(t *testing.T) {
	rec := NewRecorder()

	go func() {
		time.Sleep(10 * time.Millisecond)
		rec.Record(testAction("late"))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	a, err := rec.WaitFor(ctx, func(a Action) bool { return a.ActionType() == "late" })
	require.NoError(t, err)
	assert.Equal(t, testAction("late"), a)

	short, cancelShort := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancelShort()

	_, err = rec.WaitFor(short, func(a Action) bool { return a.ActionType() == "never" })
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
