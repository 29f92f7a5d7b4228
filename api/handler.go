// File: api/handler.go
// Package api defines Handler interface.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Handler is a step task bound to exactly one Event.
type Handler interface {
	StepTask
	Event() Event
}

// HandlerFactory builds a fresh Handler for every generated event.
type HandlerFactory func(ev Event) (Handler, error)

// NopHandler performs no work.
type NopHandler struct {
	Ev Event
}

// NewNopHandler is a HandlerFactory producing NopHandlers.
func NewNopHandler(ev Event) (Handler, error) {
	return &NopHandler{Ev: ev}, nil
}

func (h *NopHandler) Event() Event { return h.Ev }
func (h *NopHandler) Step() error  { return ErrExhausted }
