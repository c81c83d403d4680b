package packet

// Disposition is the callback's return value, per spec section 4.F.
type Disposition int

const (
	// Continue lets the parser proceed to the next unit.
	Continue Disposition = iota
	// Stop cleanly terminates the parse (spec's FINISHED).
	Stop
	// Abort aborts the parse with ErrCallbackAbort (spec's ERROR).
	Abort
)

// Event is a parser callback event: either a decoded Content or a
// meta-event (start/end/error/unsupported), per spec section 3's
// "Content value" tagged union.
type Event struct {
	Kind    EventKind
	Tag     Tag
	Content Content // nil for meta-events
	Err     *Error  // set for EventUnsupported and EventErrorEvent
}

// EventKind discriminates the callback event stream.
type EventKind int

const (
	EventStart EventKind = iota
	EventContent
	EventEnd
	EventUnsupported
	EventErrorEvent
)

// Callback consumes one Event. Returning Abort aborts the parse,
// Stop cleanly terminates it, Continue proceeds — spec section 4.F.
type Callback func(Event) Disposition

// Handlers is a stack of Callbacks invoked in registration order
// until one returns a disposition other than Continue-to-next (i.e.
// "consumes" the event). This implements spec section 4.F's "multiple
// callbacks may be stacked" — e.g. a hashing callback layered below a
// verification callback.
type Handlers struct {
	chain []Callback
}

// Push appends cb to the end of the chain, so Dispatch offers it each
// event after every handler registered before it.
func (h *Handlers) Push(cb Callback) {
	h.chain = append(h.chain, cb)
}

// Dispatch walks the handler chain in registration order. The first
// handler to return Stop or Abort short-circuits the walk; otherwise
// every handler sees the event and the aggregate result is Continue.
func (h *Handlers) Dispatch(ev Event) Disposition {
	for _, cb := range h.chain {
		switch d := cb(ev); d {
		case Stop, Abort:
			return d
		}
	}
	return Continue
}
