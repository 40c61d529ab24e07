package chi

import (
	"bytes"
	"net/http"

	"github.com/go-chi/httplog"
	"github.com/marcelsud/webhook-relay/metrics"
	"github.com/marcelsud/webhook-relay/site"
)

type healthResponse struct {
	Status string `json:"status"`
}

// getHealth handles GET /health
func getHealth() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "healthy"})
	})
}

// getAbout handles GET /about
func getAbout(page site.Page) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		if err := page.Render(&buf); err != nil {
			log := httplog.LogEntry(r.Context())
			log.Error().Err(err).Msg("rendering about page")
			http.Error(w, "failed to render page", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	})
}

// getStats handles GET /v1/stats
func getStats(collector metrics.Collector) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m, err := collector.Collect(r.Context())
		if err != nil {
			log := httplog.LogEntry(r.Context())
			log.Error().Err(err).Msg("collecting stats")
			writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "stats unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, m)
	})
}
