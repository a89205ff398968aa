package main

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"hirely/api-service/internal/auth"
	"hirely/api-service/internal/httpx"
	"hirely/api-service/internal/metrics"
)

// routeRegistrar is implemented by every feature handler.
type routeRegistrar interface {
	RegisterRoutes(r *mux.Router)
}

// newRouter assembles the HTTP stack. The outer wrappers see every request,
// including preflights and unmatched routes; the router middleware only runs
// for matched routes.
func newRouter(log logrus.FieldLogger, origins []string, tokens *auth.Tokens, limiter *httpx.RateLimiter, features ...routeRegistrar) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(httpx.NotFound)

	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	r.Use(
		auth.NewMiddleware(tokens, log).Authenticate,
		limiter.Handler,
		httpx.Metrics,
	)

	api := r.PathPrefix("/api").Subrouter()
	for _, f := range features {
		f.RegisterRoutes(api)
	}

	return httpx.Recover(httpx.RequestLogger(log)(httpx.CORS(origins)(r)))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, map[string]string{
		"status":  "ok",
		"service": serviceName,
		"version": version,
	})
}

// limiterKey buckets authenticated callers by user id and everyone else by
// remote address.
func limiterKey(r *http.Request) string {
	if id, ok := auth.FromContext(r.Context()); ok {
		return "user:" + strconv.FormatInt(id.ID, 10)
	}
	return ""
}
