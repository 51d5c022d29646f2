package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

type identityKey struct{}

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orchid_http_requests_total",
		Help: "Total number of HTTP requests grouped by method, route and status.",
	}, []string{"method", "route", "status"})
	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orchid_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// statusRecorder запоминает статус ответа для логов и метрик.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Instrument добавляет structured-логирование и Prometheus-метрики запросов.
func Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		httpRequestsTotal.WithLabelValues(r.Method, route, http.StatusText(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(elapsed.Seconds())

		log.WithFields(log.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": elapsed.Milliseconds(),
		}).Info("http request")
	})
}

// Identifier превращает bearer-токен в доменную идентичность.
type Identifier interface {
	Identify(token string) (domain.Identity, error)
}

// Authenticate извлекает Authorization: Bearer и кладёт Identity в контекст.
// Запросы без токена проходят дальше с нулевой идентичностью: решение
// об авторизации принимает операция, а не транспорт.
func Authenticate(identifier Identifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		if token == header || token == "" {
			writeJSON(w, http.StatusUnauthorized, "malformed authorization header", nil)
			return
		}

		identity, err := identifier.Identify(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, "invalid token", nil)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identityFrom возвращает идентичность запроса; нулевая для анонимов.
func identityFrom(ctx context.Context) domain.Identity {
	identity, _ := ctx.Value(identityKey{}).(domain.Identity)
	return identity
}
