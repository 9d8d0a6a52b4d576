package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	app_errors "github.com/spounge-ai/logshipper/internal/errors"
	"github.com/spounge-ai/logshipper/internal/metrics"
	"github.com/spounge-ai/logshipper/internal/service"
	"go.uber.org/zap"
)

// Routes builds the trigger router.
func Routes(shipper service.LogShipper, classifier *app_errors.ErrorClassifier, logger *zap.Logger) http.Handler {
	h := &handlers{
		shipper:    shipper,
		classifier: classifier,
		logger:     logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.healthz)
	r.Get("/readyz", h.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Post("/", h.handleEvent)
	r.Post("/events", h.handleEvent)
	r.Post("/pubsub/push", h.handlePush)

	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug("request handled",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}
