package chi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-relay/webhook"
)

/* HTTP layer DTOs for the webhook endpoints
 * Separate from domain entities to avoid leaking internal structure
 */

// errorResponse is the JSON body of non-2xx answers that carry one
type errorResponse struct {
	Error string `json:"error"`
}

const (
	hubMode        = "hub.mode"
	hubChallenge   = "hub.challenge"
	hubVerifyToken = "hub.verify_token"
	modeSubscribe  = "subscribe"
)

// verifyWebhook handles GET / (subscription verification handshake)
func verifyWebhook(verifyToken string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := httplog.LogEntry(r.Context())
		q := r.URL.Query()
		mode := q.Get(hubMode)
		token := q.Get(hubVerifyToken)

		if mode == modeSubscribe && verifyToken != "" &&
			subtle.ConstantTimeCompare([]byte(token), []byte(verifyToken)) == 1 {
			log.Info().Msg("webhook verified")
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			io.WriteString(w, q.Get(hubChallenge))
			return
		}

		log.Warn().Str("mode", mode).Msg("webhook verification rejected")
		w.WriteHeader(http.StatusForbidden)
	})
}

// postWebhook handles POST / (event notification)
func postWebhook(webhookService webhook.UseCase, maxBodyBytes int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request body too large"})
				return
			}
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read request body"})
			return
		}
		defer r.Body.Close()

		log := httplog.LogEntry(r.Context())
		receipt, err := webhookService.Receive(r.Context(), body, r.Header)
		if err != nil {
			if errors.Is(err, webhook.ErrInvalidPayload) {
				writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
				return
			}
			log.Error().Err(err).Msg("receiving webhook")
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
			return
		}

		entry := log.Info().
			Str("event_id", receipt.EventID).
			Str("ack_mode", receipt.Mode.String())
		if receipt.Outcome != nil {
			entry = entry.Str("forward_status", receipt.Outcome.Status.String())
		}
		entry.Msg("webhook acknowledged")

		// The sender only needs a 2xx; forwarding results never change the answer
		w.WriteHeader(http.StatusOK)
	})
}

// postDataDeletion handles POST /data-deletion
func postDataDeletion() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotImplemented, errorResponse{Error: "data deletion requests are not supported"})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
