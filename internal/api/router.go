package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/Rahul711sharma/momentum-analysis/internal/api/handlers"
	"github.com/Rahul711sharma/momentum-analysis/pkg/logger"
)

// NewRouter wires the endpoints. dataHandler and metricsHandler may be nil.
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(
	backtestHandler *handlers.BacktestHandler,
	dataHandler *handlers.DataHandler,
	metricsHandler http.Handler,
	log *logger.Logger,
) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api").Subrouter()

	// 백테스트
	api.HandleFunc("/metrics/overall", backtestHandler.GetOverallMetrics).Methods(http.MethodGet)
	api.HandleFunc("/backtest", backtestHandler.RunBacktest).Methods(http.MethodPost)

	// 데이터 수집
	if dataHandler != nil {
		api.HandleFunc("/data/collect", dataHandler.Collect).Methods(http.MethodPost)
	}

	// recovery는 logging 안쪽에서 실행되어 500 상태가 로그에 남음
	r.Use(loggingMiddleware(log.WithModule("api")))
	r.Use(recoveryMiddleware(log))

	return r
}

func healthCheckHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "momentum-api",
	})
}

// statusRecorder captures the response status for the access log
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware writes one access log entry per request. 5xx responses log at warn.
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			entry := log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start).String(),
			})
			if rec.status >= http.StatusInternalServerError {
				entry.Warn("HTTP request failed")
				return
			}
			entry.Debug("HTTP request")
		})
	}
}

// recoveryMiddleware turns a handler panic into a 500 JSON error
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rv := recover(); rv != nil {
					log.WithFields(map[string]interface{}{
						"panic": fmt.Sprint(rv),
						"path":  r.URL.Path,
					}).Error("Panic recovered")
					writeJSONError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
