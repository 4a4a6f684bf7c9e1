package ubx

import "fmt"

// Handler decodes one frame. Returned errors describe a single bad message;
// they never stop the stream.
type Handler func(f Frame) error

// Dispatcher routes frames by exact (class, id) match.
type Dispatcher struct {
	handlers map[MsgID]Handler
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[MsgID]Handler)}
}

// Handle registers h for msg, replacing any previous handler.
func (d *Dispatcher) Handle(msg MsgID, h Handler) {
	if h == nil {
		delete(d.handlers, msg)
		return
	}
	d.handlers[msg] = h
}

// Handles reports whether msg has a registered handler.
func (d *Dispatcher) Handles(msg MsgID) bool {
	_, ok := d.handlers[msg]
	return ok
}

// Dispatch runs the handler for f. Frames nobody registered for are ignored:
// handled is false and err is nil.
func (d *Dispatcher) Dispatch(f Frame) (handled bool, err error) {
	h, ok := d.handlers[f.Msg()]
	if !ok {
		return false, nil
	}
	if err := h(f); err != nil {
		return true, fmt.Errorf("decode %s len=%d: %w", f.Msg(), len(f.Payload), err)
	}
	return true, nil
}
