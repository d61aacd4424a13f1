package adapters

import "time"

// NewCallMetrics computes timing measurements for a finished call.
// firstToken may be the zero time for non-streaming calls or streams that
// never produced a chunk. TokensPerSecond is only set when both the token
// count and the elapsed time are positive.
func NewCallMetrics(start, firstToken time.Time, totalTokens int) CallMetrics {
	m := CallMetrics{
		TotalTime: time.Since(start),
	}

	if !firstToken.IsZero() {
		m.TimeToFirstToken = firstToken.Sub(start)
	}

	if totalTokens > 0 && m.TotalTime > 0 {
		m.TokensPerSecond = float64(totalTokens) / m.TotalTime.Seconds()
	}

	return m
}
