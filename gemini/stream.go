package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/fwojciec/shipit"
	"github.com/google/uuid"
	"google.golang.org/genai"
)

type blockKind int

const (
	kindNone blockKind = iota
	kindText
	kindThinking
)

// stream adapts the SDK's push iterator to [shipit.Stream]. One chunk can
// yield several events, so they are queued in pending and handed out one per
// Next call.
type stream struct {
	ctx     context.Context
	pull    func() (*genai.GenerateContentResponse, error, bool)
	stop    func()
	state   shipit.StreamState
	msg     shipit.AssistantMessage
	err     error
	pending []shipit.Event
	last    blockKind
	finish  genai.FinishReason
}

var _ shipit.Stream = (*stream)(nil)

// NewStreamFromIter wraps a genai response iterator as a [shipit.Stream].
func NewStreamFromIter(ctx context.Context, seq iter.Seq2[*genai.GenerateContentResponse, error]) shipit.Stream {
	next, stop := iter.Pull2(seq)
	return &stream{
		ctx:   ctx,
		pull:  next,
		stop:  stop,
		state: shipit.StreamStateNew,
	}
}

func (s *stream) Next() (shipit.Event, error) {
	switch s.state {
	case shipit.StreamStateComplete:
		return nil, io.EOF
	case shipit.StreamStateError:
		return nil, s.err
	case shipit.StreamStateClosed:
		return nil, ErrStreamClosed
	}
	for len(s.pending) == 0 {
		if err := s.ctx.Err(); err != nil {
			return nil, s.fail(shipit.StopAborted, "aborted", fmt.Errorf("gemini: %w", err))
		}
		resp, err, ok := s.pull()
		if !ok {
			s.finalize()
			return nil, io.EOF
		}
		if err != nil {
			if s.ctx.Err() != nil {
				return nil, s.fail(shipit.StopAborted, "aborted", fmt.Errorf("gemini: %w", err))
			}
			return nil, s.fail(shipit.StopError, "error", fmt.Errorf("gemini: %w", err))
		}
		if err := s.process(resp); err != nil {
			return nil, err
		}
	}
	s.state = shipit.StreamStateStreaming
	evt := s.pending[0]
	s.pending = s.pending[1:]
	return evt, nil
}

func (s *stream) fail(reason shipit.StopReason, raw string, err error) error {
	s.state = shipit.StreamStateError
	s.msg.StopReason = reason
	s.msg.RawStopReason = raw
	s.pending = nil
	s.err = err
	return err
}

func (s *stream) process(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return nil
	}
	if u := resp.UsageMetadata; u != nil {
		cached := int(u.CachedContentTokenCount)
		s.msg.Usage = shipit.Usage{
			InputTokens:     max(int(u.PromptTokenCount)-cached, 0),
			OutputTokens:    int(u.CandidatesTokenCount) + int(u.ThoughtsTokenCount),
			CacheReadTokens: cached,
		}
	}
	if len(resp.Candidates) == 0 {
		if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
			return s.fail(shipit.StopError, string(fb.BlockReason), &blockedError{reason: string(fb.BlockReason)})
		}
		return nil
	}
	cand := resp.Candidates[0]
	if cand.Content != nil {
		for _, p := range cand.Content.Parts {
			if p == nil {
				continue
			}
			if err := s.part(p); err != nil {
				return s.fail(shipit.StopError, "error", err)
			}
		}
	}
	if cand.FinishReason != "" {
		s.finish = cand.FinishReason
	}
	return nil
}

func (s *stream) part(p *genai.Part) error {
	switch {
	case p.FunctionCall != nil:
		return s.call(p)
	case p.Thought:
		idx := s.open(kindThinking, shipit.ThinkingBlock{})
		tb := s.msg.Content[idx].(shipit.ThinkingBlock)
		tb.Thinking += p.Text
		if p.ThoughtSignature != nil {
			tb.Signature = p.ThoughtSignature
		}
		s.msg.Content[idx] = tb
		if p.Text != "" {
			s.pending = append(s.pending, shipit.EventThinkingDelta{Index: idx, Delta: p.Text})
		}
	case p.Text != "":
		idx := s.open(kindText, shipit.TextBlock{})
		tb := s.msg.Content[idx].(shipit.TextBlock)
		tb.Text += p.Text
		s.msg.Content[idx] = tb
		s.pending = append(s.pending, shipit.EventTextDelta{Index: idx, Delta: p.Text})
	}
	return nil
}

// open returns the index of the block that new content of kind appends to,
// starting a fresh block when the previous part was of another kind.
func (s *stream) open(kind blockKind, zero shipit.ContentBlock) int {
	if s.last != kind {
		s.msg.Content = append(s.msg.Content, zero)
		s.last = kind
	}
	return len(s.msg.Content) - 1
}

func (s *stream) call(p *genai.Part) error {
	fc := p.FunctionCall
	id := fc.ID
	if id == "" {
		id = "call_" + uuid.NewString()
	}
	args := json.RawMessage("{}")
	if fc.Args != nil {
		b, err := json.Marshal(fc.Args)
		if err != nil {
			return fmt.Errorf("gemini: invalid tool call arguments for %s: %w", fc.Name, err)
		}
		args = b
	}
	if p.ThoughtSignature != nil {
		s.backfill(p.ThoughtSignature)
	}
	block := shipit.ToolCallBlock{ID: id, Name: fc.Name, Arguments: args}
	s.msg.Content = append(s.msg.Content, block)
	s.last = kindNone
	s.pending = append(s.pending,
		shipit.EventToolCallBegin{ID: id, Name: fc.Name},
		shipit.EventToolCallEnd{Call: block},
	)
	return nil
}

// backfill attaches a signature carried on a function call part to the most
// recent thinking block, inserting an empty one when the round had none.
func (s *stream) backfill(sig []byte) {
	for i := len(s.msg.Content) - 1; i >= 0; i-- {
		if tb, ok := s.msg.Content[i].(shipit.ThinkingBlock); ok {
			if tb.Signature == nil {
				tb.Signature = sig
				s.msg.Content[i] = tb
			}
			return
		}
	}
	s.msg.Content = append(s.msg.Content, shipit.ThinkingBlock{Signature: sig})
}

func (s *stream) finalize() {
	s.state = shipit.StreamStateComplete
	reason, raw := mapFinish(s.finish)
	if reason == shipit.StopEndTurn && len(s.msg.ToolCalls()) > 0 {
		reason = shipit.StopToolUse
	}
	s.msg.StopReason = reason
	s.msg.RawStopReason = raw
}

func mapFinish(fr genai.FinishReason) (shipit.StopReason, string) {
	switch fr {
	case "":
		return shipit.StopEndTurn, "end_turn"
	case genai.FinishReasonStop:
		return shipit.StopEndTurn, string(fr)
	case genai.FinishReasonMaxTokens:
		return shipit.StopLength, string(fr)
	default:
		return shipit.StopError, string(fr)
	}
}

func (s *stream) State() shipit.StreamState {
	return s.state
}

func (s *stream) Message() (shipit.AssistantMessage, error) {
	if s.state == shipit.StreamStateNew {
		return shipit.AssistantMessage{}, fmt.Errorf("gemini: %w", shipit.ErrStreamNotReady)
	}
	return s.msg, nil
}

func (s *stream) Close() error {
	if s.state != shipit.StreamStateComplete && s.state != shipit.StreamStateError {
		s.state = shipit.StreamStateClosed
		s.msg.StopReason = shipit.StopAborted
		s.msg.RawStopReason = "aborted"
	}
	s.pending = nil
	s.stop()
	return nil
}

// IsBlocked reports whether err came from a prompt rejected by safety filters.
func IsBlocked(err error) bool {
	var target *blockedError
	return errors.As(err, &target)
}

type blockedError struct{ reason string }

func (e *blockedError) Error() string { return "gemini: prompt blocked: " + e.reason }
