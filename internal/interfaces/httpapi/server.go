package httpapi

import (
	"net/http"

	"github.com/cfbbelt/beltbot/internal/platform/logging"
)

func NewRouter(handler *Handler, logger *logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /v1/belt/status", handler.GetBeltStatus)
	mux.HandleFunc("GET /v1/belt/stats", handler.GetBeltStats)
	mux.HandleFunc("GET /v1/belt/reigns", handler.ListReigns)
	mux.HandleFunc("GET /v1/belt/history", handler.GetTeamHistory)
	mux.HandleFunc("GET /v1/belt/chase", handler.GetBeltChase)
	mux.HandleFunc("GET /v1/belt/next", handler.GetNextBeltGame)

	return RequestTracing(RequestLogging(logger, recoverPanic(logger, mux)))
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(ctx, "panic recovered", "panic", rec)
				writeInternalError(ctx, w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
