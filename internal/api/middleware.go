package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"yatrinivas/internal/auth"
	"yatrinivas/internal/metrics"
	"yatrinivas/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// requestLogger logs every request and records its latency by route pattern.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		metrics.ObserveHTTP(route, strconv.Itoa(status), elapsed.Seconds())

		event := s.logger.Info()
		if status >= http.StatusInternalServerError {
			event = s.logger.Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", elapsed).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("http request")
	})
}

type claimsKey struct{}

func claimsFrom(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return c
}

// requireAdmin accepts requests carrying a valid admin token while the admin session is open.
// Logging out closes the session and so revokes every issued token.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := auth.BearerToken(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		claims, err := s.tokens.Validate(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		if claims.Role != models.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin access required")
			return
		}

		user, err := s.session.Me(r.Context())
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		if !user.IsAdmin() {
			writeError(w, http.StatusUnauthorized, "session has ended, please log in again")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ipLimiter keeps a token bucket per client address.
type ipLimiter struct {
	mu       sync.Mutex
	limiters map[string]*visitor
	every    rate.Limit
	burst    int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const maxTrackedVisitors = 4096

func newIPLimiter(n int, per time.Duration) *ipLimiter {
	return &ipLimiter{
		limiters: make(map[string]*visitor),
		every:    rate.Every(per / time.Duration(n)),
		burst:    n,
	}
}

func (l *ipLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	v, ok := l.limiters[key]
	if !ok {
		if len(l.limiters) >= maxTrackedVisitors {
			l.evict(now)
		}
		v = &visitor{limiter: rate.NewLimiter(l.every, l.burst)}
		l.limiters[key] = v
	}
	v.lastSeen = now
	return v.limiter.Allow()
}

// evict drops visitors idle for more than ten minutes.
func (l *ipLimiter) evict(now time.Time) {
	for k, v := range l.limiters {
		if now.Sub(v.lastSeen) > 10*time.Minute {
			delete(l.limiters, k)
		}
	}
}

func (l *ipLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "too many requests, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

const (
	idempotencyHeader   = "Idempotency-Key"
	idempotencyLockTTL  = 30 * time.Second
	idempotencyTTL      = 24 * time.Hour
	idempotencyProgress = "PROCESSING"
)

type storedResponse struct {
	Status int             `json:"status"`
	Body   json.RawMessage `json:"body"`
}

type recorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *recorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// idempotency replays the stored response of a request whose Idempotency-Key was already
// processed successfully. Requests without the header, or without Redis, pass through.
func (s *Server) idempotency(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(idempotencyHeader)
		if s.idem == nil || key == "" {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		idemKey := "yatrinivas:idempotency:" + key

		val, err := s.idem.Get(ctx, idemKey).Result()
		switch {
		case err == nil && val == idempotencyProgress:
			writeError(w, http.StatusConflict, "request with this Idempotency-Key is in progress")
			return
		case err == nil:
			var stored storedResponse
			if jerr := json.Unmarshal([]byte(val), &stored); jerr == nil {
				w.Header().Set("X-Idempotency-Hit", "true")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}
			// Unreadable entries are dropped so the key can be reused.
			s.logger.Warn().Str("key", key).Msg("discarding corrupt idempotency entry")
			if derr := s.idem.Del(ctx, idemKey).Err(); derr != nil {
				s.logger.Warn().Err(derr).Msg("idempotency cleanup failed")
				next.ServeHTTP(w, r)
				return
			}
		case !errors.Is(err, redis.Nil):
			s.logger.Warn().Err(err).Msg("idempotency lookup failed")
			next.ServeHTTP(w, r)
			return
		}

		acquired, err := s.idem.SetNX(ctx, idemKey, idempotencyProgress, idempotencyLockTTL).Result()
		if err != nil {
			s.logger.Warn().Err(err).Msg("idempotency lock failed")
			next.ServeHTTP(w, r)
			return
		}
		if !acquired {
			writeError(w, http.StatusConflict, "request with this Idempotency-Key is in progress")
			return
		}

		rec := &recorder{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		// Failed requests release the key so the client can retry.
		bg := context.WithoutCancel(ctx)
		if rec.status < 200 || rec.status >= 300 {
			s.idem.Del(bg, idemKey)
			return
		}
		raw, err := json.Marshal(storedResponse{Status: rec.status, Body: bytes.TrimSpace(rec.body.Bytes())})
		if err != nil {
			s.idem.Del(bg, idemKey)
			return
		}
		s.idem.Set(bg, idemKey, raw, idempotencyTTL)
	})
}
