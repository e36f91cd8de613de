package goslink

// SessionState enumerates the three states the connection state machine
// cycles through: Down (disconnected, possibly waiting out a reconnect
// delay), Up (TCP connected, negotiating), Data (negotiated, streaming).
type SessionState int

const (
	Down SessionState = iota
	Up
	Data
)

func (s SessionState) String() string {
	switch s {
	case Down:
		return "Down"
	case Up:
		return "Up"
	case Data:
		return "Data"
	default:
		return "Unknown"
	}
}

// QueryMode tracks what kind of request, if any, is waiting on an INFO
// response.
type QueryMode int

const (
	NoQuery QueryMode = iota
	InfoQuery
	KeepAliveQuery
)

// trigger is a tri-state timer: -1 means "reset, rearm on next tick",
// 0 means "armed, waiting", 1 means "fired".
type trigger int8

const (
	triggerReset trigger = -1
	triggerArmed trigger = 0
	triggerFired trigger = 1
)

// receiveBufferCapacity is the fixed receive buffer size; record sizes are
// capped at 4096 bytes so this is always enough to hold at least one full
// record alongside a partial next one.
const receiveBufferCapacity = 8192

// sessionState is the mutable per-connection state: the receive buffer and
// its cursors, the timer triggers, and the state-machine's own state.
type sessionState struct {
	state SessionState

	databuf [receiveBufferCapacity]byte
	recptr  int // write cursor
	sendptr int // read cursor

	nettoTrig     trigger
	netdlyTrig    trigger
	keepaliveTrig trigger

	// netdlyReadyAt/nettoDeadline/keepaliveDeadline are wall-clock times
	// (platform.Now()) at which the corresponding tri-state trigger above
	// fires. Zero means "ready immediately" / "not armed".
	netdlyReadyAt     float64
	nettoDeadline     float64
	keepaliveDeadline float64

	expectInfo bool
	queryMode  QueryMode

	terminateRequested bool
	terminated         bool

	// currentHeader/currentRecord/currentLen describe the most recently
	// extracted packet view into databuf; valid only until the next
	// pipeline advance.
	currentHeader []byte
	currentRecord []byte
	currentLen    int
}

func newSessionState() *sessionState {
	return &sessionState{
		state:         Down,
		nettoTrig:     triggerReset,
		netdlyTrig:    triggerArmed,
		keepaliveTrig: triggerReset,
	}
}

// unreadLen returns the number of unconsumed bytes currently in the buffer.
func (s *sessionState) unreadLen() int {
	return s.recptr - s.sendptr
}

// compact shifts unread bytes to the start of the buffer, restoring the
// invariant sendptr == 0 whenever bytes remain and sendptr > 0. Compacting
// on every tick (rather than using a ring buffer) keeps records contiguous,
// which the framer requires.
func (s *sessionState) compact() {
	if s.sendptr == 0 {
		return
	}
	n := copy(s.databuf[:], s.databuf[s.sendptr:s.recptr])
	s.recptr = n
	s.sendptr = 0
}

// availableSpace is how much room remains for a fresh read.
func (s *sessionState) availableSpace() int {
	return len(s.databuf) - s.recptr
}
