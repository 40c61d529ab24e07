package forward

import "context"

// Recorder observes attempts and outcomes. Implementations must not block for long.
type Recorder interface {
	RecordAttempt(ctx context.Context, attempt Attempt)
	RecordOutcome(ctx context.Context, outcome Outcome)
}

// Recorders fans every event out to each recorder in order
type Recorders []Recorder

func (rs Recorders) RecordAttempt(ctx context.Context, attempt Attempt) {
	for _, r := range rs {
		if r != nil {
			r.RecordAttempt(ctx, attempt)
		}
	}
}

func (rs Recorders) RecordOutcome(ctx context.Context, outcome Outcome) {
	for _, r := range rs {
		if r != nil {
			r.RecordOutcome(ctx, outcome)
		}
	}
}
