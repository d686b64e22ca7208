package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"inventory-envelope/internal/middleware"
)

// Handlers はルーターに登録するハンドラ群。
type Handlers struct {
	Envelope *EnvelopeHandler
	Settings *SettingsHandler
	Items    *ItemHandler
	// Metrics がnilの場合は/metricsを公開しない。
	Metrics  http.Handler
	Recorder middleware.HTTPRecorder
}

// NewRouter はルーターを生成する。
func NewRouter(h Handlers) http.Handler {
	r := chi.NewRouter()

	// ミドルウェア
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger(h.Recorder))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	// ルート定義
	r.Route("/v1", func(r chi.Router) {
		r.Post("/envelope/encrypt", h.Envelope.Encrypt)
		r.Post("/envelope/decrypt", h.Envelope.Decrypt)

		r.Get("/settings", h.Settings.Get)
		r.Put("/settings/{field}", h.Settings.Update)

		r.Post("/items/export", h.Items.Export)
		r.Post("/items/import", h.Items.Import)
	})

	return otelhttp.NewHandler(r, "inventory-envelope",
		otelhttp.WithFilter(func(req *http.Request) bool {
			return req.URL.Path != "/healthz" && req.URL.Path != "/metrics"
		}),
	)
}
