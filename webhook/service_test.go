package webhook_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/marcelsud/webhook-relay/forward"
	"github.com/marcelsud/webhook-relay/webhook"
	"github.com/marcelsud/webhook-relay/webhook/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReceive(t *testing.T) {
	ctx := context.Background()

	t.Run("success - ack after forwards synchronously", func(t *testing.T) {
		fwd := mocks.NewForwarder(t)
		service := webhook.NewService(fwd, webhook.AckAfter, zerolog.Nop())

		body := []byte(`{"object": "whatsapp_business_account", "entry": []}`)
		headers := http.Header{}
		headers.Set("X-Request-Id", "req-1")
		headers.Set("Cookie", "session=1")

		fwd.On("Forward", mock.Anything, webhook.MatchRequest(func(req forward.Request) bool {
			return string(req.Body()) == string(body) &&
				req.Headers().Get("X-Request-Id") == "req-1" &&
				len(req.Headers()) == 1
		})).Return(forward.Outcome{Status: forward.Success, StatusCode: 200})

		receipt, err := service.Receive(ctx, body, headers)

		require.NoError(t, err)
		assert.NotEmpty(t, receipt.EventID)
		assert.Equal(t, webhook.AckAfter, receipt.Mode)
		require.NotNil(t, receipt.Outcome)
		assert.Equal(t, forward.Success, receipt.Outcome.Status)
	})

	t.Run("success - ack before forwards in the background", func(t *testing.T) {
		fwd := mocks.NewForwarder(t)
		service := webhook.NewService(fwd, webhook.AckBefore, zerolog.Nop())

		called := make(chan struct{})
		fwd.On("Forward", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { close(called) }).
			Return(forward.Outcome{Status: forward.Success, StatusCode: 200})

		receipt, err := service.Receive(ctx, []byte(`{"event": "alert"}`), nil)

		require.NoError(t, err)
		assert.Equal(t, webhook.AckBefore, receipt.Mode)
		assert.Nil(t, receipt.Outcome)

		select {
		case <-called:
		case <-time.After(2 * time.Second):
			t.Fatal("forward was not called")
		}
		require.NoError(t, service.Shutdown(ctx))
	})

	t.Run("success - background forward outlives the request context", func(t *testing.T) {
		fwd := mocks.NewForwarder(t)
		service := webhook.NewService(fwd, webhook.AckBefore, zerolog.Nop())

		reqCtx, cancel := context.WithCancel(ctx)
		fwd.On("Forward", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				assert.NoError(t, args.Get(0).(context.Context).Err())
			}).
			Return(forward.Outcome{Status: forward.Success})

		_, err := service.Receive(reqCtx, []byte(`{}`), nil)
		cancel()

		require.NoError(t, err)
		require.NoError(t, service.Shutdown(ctx))
	})

	t.Run("success - ack after forward survives request cancellation", func(t *testing.T) {
		fwd := mocks.NewForwarder(t)
		service := webhook.NewService(fwd, webhook.AckAfter, zerolog.Nop())

		reqCtx, cancel := context.WithCancel(ctx)
		fwd.On("Forward", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				// the client goes away mid-forward
				cancel()
				assert.NoError(t, args.Get(0).(context.Context).Err())
			}).
			Return(forward.Outcome{Status: forward.Success, StatusCode: 200})

		receipt, err := service.Receive(reqCtx, []byte(`{}`), nil)

		require.NoError(t, err)
		require.NotNil(t, receipt.Outcome)
		assert.Equal(t, forward.Success, receipt.Outcome.Status)
		require.NoError(t, service.Shutdown(ctx))
	})

	t.Run("error - invalid JSON never reaches the forwarder", func(t *testing.T) {
		fwd := mocks.NewForwarder(t)
		service := webhook.NewService(fwd, webhook.AckAfter, zerolog.Nop())

		_, err := service.Receive(ctx, []byte(`{invalid json}`), nil)

		require.Error(t, err)
		assert.True(t, errors.Is(err, webhook.ErrInvalidPayload))
		fwd.AssertNotCalled(t, "Forward", mock.Anything, mock.Anything)
	})

	t.Run("error - empty body", func(t *testing.T) {
		fwd := mocks.NewForwarder(t)
		service := webhook.NewService(fwd, webhook.AckBefore, zerolog.Nop())

		_, err := service.Receive(ctx, nil, nil)

		require.ErrorIs(t, err, webhook.ErrInvalidPayload)
	})

	t.Run("invalid ack mode", func(t *testing.T) {
		fwd := mocks.NewForwarder(t)
		service := webhook.NewService(fwd, webhook.AckMode(999), zerolog.Nop())

		_, err := service.Receive(ctx, []byte(`{}`), nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "validating ack mode")
	})
}

func TestShutdown(t *testing.T) {
	ctx := context.Background()

	t.Run("success - no in-flight work", func(t *testing.T) {
		service := webhook.NewService(mocks.NewForwarder(t), webhook.AckBefore, zerolog.Nop())

		require.NoError(t, service.Shutdown(ctx))
	})

	t.Run("deadline cancels in-flight forwards", func(t *testing.T) {
		fwd := mocks.NewForwarder(t)
		service := webhook.NewService(fwd, webhook.AckBefore, zerolog.Nop())

		finished := make(chan error, 1)
		fwd.On("Forward", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				fctx := args.Get(0).(context.Context)
				<-fctx.Done()
				finished <- fctx.Err()
			}).
			Return(forward.Outcome{Status: forward.Failure, Error: "forwarding cancelled: context canceled"})

		_, err := service.Receive(ctx, []byte(`{}`), nil)
		require.NoError(t, err)

		shutdownCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		err = service.Shutdown(shutdownCtx)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "waiting for in-flight forwards")
		select {
		case ferr := <-finished:
			assert.ErrorIs(t, ferr, context.Canceled)
		case <-time.After(2 * time.Second):
			t.Fatal("in-flight forward was not cancelled")
		}
	})

	t.Run("deadline cancels an ack after forward", func(t *testing.T) {
		fwd := mocks.NewForwarder(t)
		service := webhook.NewService(fwd, webhook.AckAfter, zerolog.Nop())

		started := make(chan struct{})
		fwd.On("Forward", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				close(started)
				<-args.Get(0).(context.Context).Done()
			}).
			Return(forward.Outcome{Status: forward.Failure, Error: "forwarding cancelled: context canceled"})

		receipts := make(chan webhook.Receipt, 1)
		go func() {
			receipt, _ := service.Receive(ctx, []byte(`{}`), nil)
			receipts <- receipt
		}()
		<-started

		shutdownCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
		defer cancel()
		require.Error(t, service.Shutdown(shutdownCtx))

		select {
		case receipt := <-receipts:
			require.NotNil(t, receipt.Outcome)
			assert.Equal(t, forward.Failure, receipt.Outcome.Status)
		case <-time.After(2 * time.Second):
			t.Fatal("ack after forward was not cancelled")
		}
	})

	t.Run("receive after shutdown forwards inline", func(t *testing.T) {
		fwd := mocks.NewForwarder(t)
		service := webhook.NewService(fwd, webhook.AckBefore, zerolog.Nop())
		require.NoError(t, service.Shutdown(ctx))

		fwd.On("Forward", ctx, mock.Anything).Return(forward.Outcome{Status: forward.Skipped})

		receipt, err := service.Receive(ctx, []byte(`[1]`), nil)

		require.NoError(t, err)
		require.NotNil(t, receipt.Outcome)
		assert.Equal(t, forward.Skipped, receipt.Outcome.Status)
	})
}

func TestAckMode(t *testing.T) {
	assert.Equal(t, webhook.AckBefore, webhook.NewAckMode("before"))
	assert.Equal(t, webhook.AckAfter, webhook.NewAckMode("after"))
	assert.Equal(t, webhook.AckBefore, webhook.NewAckMode(""))
	assert.Equal(t, "after", webhook.AckAfter.String())
	assert.Equal(t, "unknown", webhook.AckMode(0).String())
	assert.Error(t, webhook.AckMode(0).Validate())
	assert.NoError(t, webhook.AckBefore.Validate())
}
