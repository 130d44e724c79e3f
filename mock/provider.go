// Package mock provides test doubles for shipit interfaces using function fields.
package mock

import (
	"context"
	"io"

	"github.com/fwojciec/shipit"
)

// Interface compliance checks.
var (
	_ shipit.Provider = (*Provider)(nil)
	_ shipit.Stream   = (*Stream)(nil)
)

// Provider is a test double for shipit.Provider.
// Set StreamFn before calling Stream.
type Provider struct {
	StreamFn func(ctx context.Context, req shipit.Request) (shipit.Stream, error)
}

// Stream delegates to StreamFn.
func (p *Provider) Stream(ctx context.Context, req shipit.Request) (shipit.Stream, error) {
	return p.StreamFn(ctx, req)
}

// Stream is a test double for shipit.Stream.
// NextFn and MessageFn panic when nil to catch missing setup. CloseFn and
// StateFn are nil-safe because callers commonly defer Close.
type Stream struct {
	NextFn    func() (shipit.Event, error)
	StateFn   func() shipit.StreamState
	MessageFn func() (shipit.AssistantMessage, error)
	CloseFn   func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (shipit.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() shipit.StreamState {
	if s.StateFn == nil {
		return shipit.StreamStateNew
	}
	return s.StateFn()
}

// Message delegates to MessageFn.
func (s *Stream) Message() (shipit.AssistantMessage, error) {
	return s.MessageFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// ReplayStream returns a Stream that yields events in order, then io.EOF,
// and reports msg as the assembled message.
func ReplayStream(msg shipit.AssistantMessage, events ...shipit.Event) *Stream {
	i := 0
	state := shipit.StreamStateNew
	return &Stream{
		NextFn: func() (shipit.Event, error) {
			if i >= len(events) {
				state = shipit.StreamStateComplete
				return nil, io.EOF
			}
			state = shipit.StreamStateStreaming
			e := events[i]
			i++
			return e, nil
		},
		StateFn: func() shipit.StreamState { return state },
		MessageFn: func() (shipit.AssistantMessage, error) {
			return msg, nil
		},
	}
}
