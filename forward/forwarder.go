package forward

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	// maxResponseBytes caps how much of the destination's reply is kept; the rest is drained
	maxResponseBytes int64 = 1 << 20

	// errorBodyLimit caps how much of a rejected reply ends up in the error message
	errorBodyLimit = 300
)

// Doer performs a single HTTP request. Cancellation is carried by the request context.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

/* Forwarder delivers payloads to one fixed destination
 * Uses pointer semantics as it's an API, not data. Safe for concurrent use:
 * the only shared state is the read-only Config and the Doer.
 */
type Forwarder struct {
	cfg      Config
	doer     Doer
	logger   zerolog.Logger
	recorder Recorder
	sleep    SleepFunc
	now      func() time.Time
}

// Option customizes a Forwarder
type Option func(*Forwarder)

// WithDoer replaces the default http.Client
func WithDoer(doer Doer) Option {
	return func(f *Forwarder) {
		if doer != nil {
			f.doer = doer
		}
	}
}

// WithLogger sets the structured logger for attempt and outcome events
func WithLogger(logger zerolog.Logger) Option {
	return func(f *Forwarder) {
		f.logger = logger
	}
}

// WithRecorder attaches a telemetry recorder
func WithRecorder(recorder Recorder) Option {
	return func(f *Forwarder) {
		f.recorder = recorder
	}
}

// WithSleep replaces the backoff wait, mostly for tests
func WithSleep(sleep SleepFunc) Option {
	return func(f *Forwarder) {
		if sleep != nil {
			f.sleep = sleep
		}
	}
}

// New creates a Forwarder. Non-positive Timeout and MaxAttempts fall back to the defaults.
func New(cfg Config, opts ...Option) *Forwarder {
	f := &Forwarder{
		cfg:      cfg.normalize(),
		doer:     &http.Client{},
		logger:   zerolog.Nop(),
		recorder: Recorders(nil),
		sleep:    sleepContext,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.recorder == nil {
		f.recorder = Recorders(nil)
	}
	f.logger = f.logger.With().Str("component", "forwarder").Logger()
	return f
}

// Config returns the normalized configuration in use
func (f *Forwarder) Config() Config {
	return f.cfg
}

// ForwardPayload serializes payload once and forwards it. A payload that cannot be
// serialized yields a Failure outcome without any network activity.
func (f *Forwarder) ForwardPayload(ctx context.Context, payload any, inbound http.Header) Outcome {
	if !f.cfg.Enabled() {
		return f.skip(ctx)
	}
	req, err := NewRequest(payload, inbound)
	if err != nil {
		return f.finish(ctx, f.now(), Outcome{Status: Failure, Error: err.Error()})
	}
	return f.Forward(ctx, req)
}

// Forward runs the attempt loop and returns exactly one terminal outcome
func (f *Forwarder) Forward(ctx context.Context, req Request) Outcome {
	if !f.cfg.Enabled() {
		return f.skip(ctx)
	}

	started := f.now()
	attempts := make([]Attempt, 0, f.cfg.MaxAttempts)
	for n := 1; n <= f.cfg.MaxAttempts; n++ {
		a := f.attempt(ctx, n, req)
		attempts = append(attempts, a)
		f.recorder.RecordAttempt(ctx, a)

		if a.Kind == Ok {
			f.logger.Info().
				Int("attempt", n).
				Int("status_code", a.StatusCode).
				Dur("duration", a.Duration).
				Msg("forward ok")
			return f.finish(ctx, started, Outcome{
				Status:     Success,
				StatusCode: a.StatusCode,
				Body:       a.Body,
				Attempts:   attempts,
			})
		}

		f.logger.Error().
			Int("attempt", n).
			Int("max_attempts", f.cfg.MaxAttempts).
			Str("kind", a.Kind.String()).
			Int("status_code", a.StatusCode).
			Dur("duration", a.Duration).
			Msgf("forward failed (attempt %d/%d): %s", n, f.cfg.MaxAttempts, a.Err)

		if err := ctx.Err(); err != nil {
			return f.finish(ctx, started, cancelled(err, attempts))
		}
		if n == f.cfg.MaxAttempts || (f.cfg.StopOnClientError && a.ClientError()) {
			return f.finish(ctx, started, Outcome{Status: Failure, Error: a.Err, Attempts: attempts})
		}
		if err := f.sleep(ctx, f.cfg.Backoff(n)); err != nil {
			return f.finish(ctx, started, cancelled(err, attempts))
		}
	}

	// MaxAttempts is at least 1 after normalize, so the loop always returns
	return f.finish(ctx, started, Outcome{Status: Failure, Error: "no attempts made", Attempts: attempts})
}

func (f *Forwarder) attempt(ctx context.Context, n int, req Request) (a Attempt) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()

	a = Attempt{Number: n}
	started := f.now()
	defer func() { a.Duration = f.now().Sub(started) }()

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, f.cfg.Destination, bytes.NewReader(req.body))
	if err != nil {
		a.Kind = NetworkError
		a.Err = fmt.Sprintf("creating request: %v", err)
		return a
	}
	f.setHeaders(httpReq, req)

	res, err := f.doer.Do(httpReq)
	if err != nil {
		f.classifyError(ctx, attemptCtx, &a, err)
		return a
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		f.classifyError(ctx, attemptCtx, &a, fmt.Errorf("reading response body: %w", err))
		return a
	}
	// drain the remainder so the connection can be reused
	if _, err := io.Copy(io.Discard, res.Body); err != nil {
		f.logger.Debug().Err(err).Msg("draining response body")
	}

	a.StatusCode = res.StatusCode
	a.Body = string(body)
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		a.Kind = Ok
		return a
	}
	a.Kind = HTTPError
	a.Err = fmt.Sprintf("HTTP %d %s: %s", res.StatusCode, http.StatusText(res.StatusCode), truncate(body, errorBodyLimit))
	return a
}

// classifyError separates our own per-attempt deadline from every other transport failure
func (f *Forwarder) classifyError(parent, attemptCtx context.Context, a *Attempt, err error) {
	if parent.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
		a.Kind = Timeout
		a.Err = fmt.Sprintf("timed out after %s", f.cfg.Timeout)
		return
	}
	a.Kind = NetworkError
	a.Err = err.Error()
}

func (f *Forwarder) setHeaders(httpReq *http.Request, req Request) {
	httpReq.Header.Set("Content-Type", contentTypeJSON)
	if f.cfg.Token != "" {
		switch f.cfg.AuthScheme {
		case Bearer:
			httpReq.Header.Set("Authorization", fmt.Sprintf(authorizationBearerFmt, f.cfg.Token))
		case Both:
			httpReq.Header.Set("Authorization", fmt.Sprintf(authorizationBearerFmt, f.cfg.Token))
			httpReq.Header.Set(headerAPIKey, f.cfg.Token)
		default:
			httpReq.Header.Set("Authorization", fmt.Sprintf(authorizationAPIKeyFmt, f.cfg.Token))
		}
	}
	for name, values := range req.headers {
		httpReq.Header[name] = append([]string(nil), values...)
	}
}

func (f *Forwarder) skip(ctx context.Context) Outcome {
	f.logger.Warn().Msg("destination not configured; skipping forward")
	out := Outcome{Status: Skipped}
	f.recorder.RecordOutcome(ctx, out)
	return out
}

func (f *Forwarder) finish(ctx context.Context, started time.Time, out Outcome) Outcome {
	out.Elapsed = f.now().Sub(started)
	if out.Status == Failure {
		f.logger.Error().
			Int("attempts", len(out.Attempts)).
			Dur("elapsed", out.Elapsed).
			Str("error", out.Error).
			Msg("final failure forwarding payload")
	}
	f.recorder.RecordOutcome(ctx, out)
	return out
}

func cancelled(err error, attempts []Attempt) Outcome {
	return Outcome{
		Status:   Failure,
		Error:    fmt.Sprintf("forwarding cancelled: %v", err),
		Attempts: attempts,
	}
}

func truncate(b []byte, limit int) string {
	if len(b) > limit {
		return string(b[:limit])
	}
	return string(b)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
