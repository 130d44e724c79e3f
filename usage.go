package shipit

// Usage tracks token consumption for one model round.
//
//	InputTokens     = non-cached input tokens
//	CacheReadTokens = tokens served from cache
//
// Providers clamp derived counts at zero.
type Usage struct {
	InputTokens     int
	OutputTokens    int
	CacheReadTokens int
}

// Add returns the sum of u and o.
func (u Usage) Add(o Usage) Usage {
	return Usage{
		InputTokens:     u.InputTokens + o.InputTokens,
		OutputTokens:    u.OutputTokens + o.OutputTokens,
		CacheReadTokens: u.CacheReadTokens + o.CacheReadTokens,
	}
}

// Total is the number of tokens billed for the round.
func (u Usage) Total() int {
	return u.InputTokens + u.OutputTokens + u.CacheReadTokens
}
