package httpapi

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

const (
	idempotencyHeader     = "Idempotency-Key"
	defaultIdempotencyTTL = 24 * time.Hour
)

// captureWriter буферизует тело ответа, чтобы сохранить его для replay.
type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (w *captureWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

func (w *captureWriter) Write(p []byte) (int, error) {
	w.body.Write(p)
	return w.ResponseWriter.Write(p)
}

// Idempotent оборачивает мутирующий обработчик поддержкой Idempotency-Key.
// Повторный запрос с тем же ключом и телом получает сохранённый ответ,
// с другим телом — 409.
func Idempotent(repo domain.IdempotencyRepository, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(idempotencyHeader)
		if repo == nil || key == "" {
			next.ServeHTTP(w, r)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, "failed to read request body", nil)
			return
		}
		_ = r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		hash := requestHash(r.Method, r.URL.Path, body)
		record, err := repo.CreateProcessing(key, hash, time.Now().UTC().Add(defaultIdempotencyTTL))
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrIdempotencyHashMismatch):
				writeJSON(w, http.StatusConflict, "idempotency key reused with a different request", nil)
			case errors.Is(err, domain.ErrIdempotencyKeyAlreadyExists):
				replay(w, record)
			default:
				writeError(w, err)
			}
			return
		}

		capture := &captureWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(capture, r)

		markErr := error(nil)
		if capture.status < http.StatusInternalServerError {
			markErr = repo.MarkDone(key, capture.body.Bytes(), capture.status)
		} else {
			markErr = repo.MarkFailed(key, capture.body.Bytes(), capture.status)
		}
		if markErr != nil {
			log.WithError(markErr).WithField("idempotency_key", key).Warn("failed to persist idempotency result")
		}
	})
}

// replay отдаёт сохранённый ответ либо 409, если первый запрос ещё в работе.
func replay(w http.ResponseWriter, record domain.IdempotencyRecord) {
	if record.Status == domain.IdempotencyStatusProcessing {
		writeJSON(w, http.StatusConflict, "request with this idempotency key is still processing", nil)
		return
	}

	status := record.HTTPStatus
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(record.ResponseBody)
}

func requestHash(method, path string, body []byte) string {
	sum := sha256.New()
	sum.Write([]byte(method))
	sum.Write([]byte{0})
	sum.Write([]byte(path))
	sum.Write([]byte{0})
	sum.Write(body)
	return hex.EncodeToString(sum.Sum(nil))
}
