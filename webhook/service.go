package webhook

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/marcelsud/webhook-relay/forward"
	"github.com/marcelsud/webhook-relay/webhook/payload"
	"github.com/rs/zerolog"
)

// ErrInvalidPayload is returned by Receive when the body is not JSON
var ErrInvalidPayload = errors.New("invalid payload")

/* Service represents the business logic layer
 * Uses pointer semantics as it's an API, not data
 */

// UseCase defines the operations the HTTP layer needs
type UseCase interface {
	Receive(ctx context.Context, body []byte, headers http.Header) (Receipt, error)
	Shutdown(ctx context.Context) error
}

// Forwarder delivers a request to the SOAR destination
type Forwarder interface {
	Forward(ctx context.Context, req forward.Request) forward.Outcome
}

// Receipt is what the caller learns about an accepted webhook
type Receipt struct {
	EventID string
	Mode    AckMode

	// Outcome is nil when the forward runs in the background
	Outcome *forward.Outcome
}

type Service struct {
	Forwarder Forwarder
	Mode      AckMode
	Logger    zerolog.Logger

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex
	closed bool
}

// NewService creates a new webhook service with dependency injection
func NewService(fwd Forwarder, mode AckMode, logger zerolog.Logger) *Service {
	base, cancel := context.WithCancel(context.Background())
	return &Service{
		Forwarder: fwd,
		Mode:      mode,
		Logger:    logger.With().Str("component", "webhook").Logger(),
		base:      base,
		cancel:    cancel,
	}
}

// Receive validates the body and hands it to the forwarder according to the ack mode
func (s *Service) Receive(ctx context.Context, body []byte, headers http.Header) (Receipt, error) {
	if err := s.Mode.Validate(); err != nil {
		return Receipt{}, fmt.Errorf("validating ack mode: %w", err)
	}

	p, err := payload.Parse(body)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	req, err := forward.NewRawRequest(p.Raw, headers)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	wh := Webhook{
		ID:         uuid.New().String(),
		Payload:    req.Body(),
		Headers:    req.Headers(),
		ReceivedAt: time.Now(),
	}

	s.Logger.Info().
		Str("event_id", wh.ID).
		Str("object", p.Object).
		Int("entries", p.Entries).
		Int("messages", p.Messages).
		Int("statuses", p.Statuses).
		Int("bytes", len(wh.Payload)).
		Msg("webhook received")
	if e := s.Logger.Debug(); e.Enabled() {
		e.Str("event_id", wh.ID).Msg(p.Pretty())
	}

	receipt := Receipt{EventID: wh.ID, Mode: s.Mode}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		// shutting down: no new tracked work, deliver on the caller's time
		outcome := s.deliver(ctx, wh, req)
		receipt.Outcome = &outcome
		return receipt, nil
	}
	s.wg.Add(1)
	s.mu.Unlock()

	if s.Mode == AckAfter {
		defer s.wg.Done()
		fctx, cancel := s.detach(ctx)
		defer cancel()
		outcome := s.deliver(fctx, wh, req)
		receipt.Outcome = &outcome
		return receipt, nil
	}

	go func() {
		defer s.wg.Done()
		s.deliver(s.base, wh, req)
	}()
	return receipt, nil
}

// detach keeps ctx values but ties cancellation to the service instead of the request.
// A router timeout or client disconnect must not cut the retry loop short.
func (s *Service) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stop := context.AfterFunc(s.base, cancel)
	return fctx, func() {
		stop()
		cancel()
	}
}

// Shutdown waits for in-flight forwards, cancelling them if ctx expires first
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		return fmt.Errorf("waiting for in-flight forwards: %w", ctx.Err())
	}
}

func (s *Service) deliver(ctx context.Context, wh Webhook, req forward.Request) forward.Outcome {
	outcome := s.Forwarder.Forward(ctx, req)

	e := s.Logger.Info()
	if outcome.Status == forward.Failure {
		e = s.Logger.Warn().Str("error", outcome.Error)
	}
	e.Str("event_id", wh.ID).
		Str("status", outcome.Status.String()).
		Int("attempts", len(outcome.Attempts)).
		Dur("elapsed", outcome.Elapsed).
		Dur("since_received", time.Since(wh.ReceivedAt)).
		Msg("webhook forwarded")
	return outcome
}
