package reconcile

// State is the lifecycle stage of a [Reconciler].
type State int32

const (
	Uninitialized State = iota
	Loading
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}
