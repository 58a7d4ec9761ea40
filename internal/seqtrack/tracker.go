// Per-peer sequence validation and loss counting over wrapping 32 bit counters
package seqtrack

// Classification of an observed sequence number
type Verdict uint8

const (
	First   Verdict = iota // baseline for a new peer
	InOrder                // exactly last+1
	Gap                    // ahead of last+1, packets lost in between
	Stale                  // repeat or behind last
)

// Half the sequence space. Distances at or beyond this are treated as behind.
const halfRange uint32 = 1 << 31

// Sequence state of one peer
type State struct {
	started bool
	last    uint32
	lost    uint32
	stale   uint32
}

// Records seq and returns how many packets were lost since the last accepted one.
// last never moves backward and counters never decrease.
func (state *State) Observe(seq uint32) (lost uint32, verdict Verdict) {
	if !state.started {
		state.started = true
		state.last = seq
		verdict = First
		return
	}

	diff := seq - state.last
	switch {
	case diff == 1:
		verdict = InOrder
	case diff == 0 || diff >= halfRange:
		state.stale++
		verdict = Stale
		return
	default:
		lost = diff - 1
		verdict = Gap
	}

	state.last = seq
	state.lost += lost
	return
}

// Last accepted sequence number
func (state *State) Last() uint32 {
	return state.last
}

// Cumulative lost packet count
func (state *State) Lost() uint32 {
	return state.lost
}

// Cumulative stale/duplicate count
func (state *State) Stale() uint32 {
	return state.stale
}

// Whether any packet has been observed
func (state *State) Started() bool {
	return state.started
}

func (v Verdict) String() string {
	switch v {
	case First:
		return "first"
	case InOrder:
		return "in-order"
	case Gap:
		return "gap"
	case Stale:
		return "stale"
	default:
		return "unknown"
	}
}

// Sequence states keyed by peer identity.
// Not safe for concurrent use, owned by the receive task.
type Tracker[K comparable] struct {
	states map[K]*State
}

// Tracker Constructor
func NewTracker[K comparable]() (new *Tracker[K]) {
	new = &Tracker[K]{
		states: make(map[K]*State),
	}
	return
}

// Observes seq for peer id, creating its state on first contact
func (tracker *Tracker[K]) Observe(id K, seq uint32) (lost uint32, verdict Verdict) {
	state, ok := tracker.states[id]
	if !ok {
		state = &State{}
		tracker.states[id] = state
	}
	lost, verdict = state.Observe(seq)
	return
}

// Cumulative loss for peer id (zero when never seen)
func (tracker *Tracker[K]) Lost(id K) (lost uint32) {
	state, ok := tracker.states[id]
	if !ok {
		return
	}
	lost = state.Lost()
	return
}

// Last accepted sequence for peer id
func (tracker *Tracker[K]) Last(id K) (last uint32, seen bool) {
	state, seen := tracker.states[id]
	if !seen {
		return
	}
	last = state.Last()
	return
}

// Number of tracked peers
func (tracker *Tracker[K]) Len() int {
	return len(tracker.states)
}
