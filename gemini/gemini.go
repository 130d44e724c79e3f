// Package gemini implements [shipit.Provider] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK. Streaming uses the SDK's
// iter.Seq2 iterator, pulled one chunk at a time and translated into
// [shipit.Event] values.
package gemini

import "github.com/fwojciec/shipit"

const (
	defaultModel     = "gemini-2.5-pro"
	defaultMaxTokens = 65536
)

// ErrStreamClosed is returned by Next after Close.
var ErrStreamClosed = shipit.ErrStreamClosed
