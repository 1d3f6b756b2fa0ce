package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"

	idempotencyTTL = 24 * time.Hour
	lockTTL        = 30 * time.Second
)

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// Idempotency replays the first response for a repeated POST carrying an
// Idempotency-Key. A duplicate that arrives while the first is still running
// gets 409 PROCESSING. Redis failures fall through to the handler.
func Idempotency(rdb *redis.Client, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if rdb == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(IdempotencyHeader)
			if key == "" || r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			cacheKey := fmt.Sprintf("idemp:%s:%s:%s", r.URL.Path, principalFrom(r).ID, key)
			lockKey := cacheKey + ":lock"

			val, err := rdb.Get(ctx, cacheKey).Bytes()
			if err == nil {
				var cached cachedResponse
				if jsonErr := json.Unmarshal(val, &cached); jsonErr == nil {
					if cached.ContentType != "" {
						w.Header().Set("Content-Type", cached.ContentType)
					}
					w.Header().Set(ReplayedHeader, "true")
					w.WriteHeader(cached.Status)
					w.Write(cached.Body)
					return
				}
			} else if !errors.Is(err, redis.Nil) {
				logger.Warn().Err(err).Msg("idempotency lookup failed")
				next.ServeHTTP(w, r)
				return
			}

			acquired, err := rdb.SetNX(ctx, lockKey, "locked", lockTTL).Result()
			if err != nil {
				logger.Warn().Err(err).Msg("idempotency lock failed")
				next.ServeHTTP(w, r)
				return
			}
			if !acquired {
				writeError(w, http.StatusConflict, "PROCESSING", "Request is already being processed", nil)
				return
			}
			// The request context may be cancelled by a timeout or a client
			// disconnect; the lock release and the cache write must still run.
			detached := context.WithoutCancel(ctx)
			defer rdb.Del(detached, lockKey)

			var buf bytes.Buffer
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			ww.Tee(&buf)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			if status >= http.StatusInternalServerError {
				return
			}
			payload, err := json.Marshal(cachedResponse{
				Status:      status,
				ContentType: ww.Header().Get("Content-Type"),
				Body:        buf.Bytes(),
			})
			if err != nil {
				return
			}
			if err := rdb.Set(detached, cacheKey, payload, idempotencyTTL).Err(); err != nil {
				logger.Warn().Err(err).Msg("idempotency store failed")
			}
		})
	}
}
