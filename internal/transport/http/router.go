package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	ledgerhandler "carecoin/internal/ledger/handler"
)

// NewRouter wires the public surface: the ledger operation and query routes,
// the prometheus scrape endpoint, and a liveness probe.
func NewRouter(ledger *ledgerhandler.Handler) http.Handler {
	r := chi.NewRouter()

	ledger.Register(r)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return r
}
