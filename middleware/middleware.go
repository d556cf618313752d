package middleware

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"time"

	"recipehub/auth"
	"recipehub/logging"
	"recipehub/metrics"
	"recipehub/utils"

	"github.com/julienschmidt/httprouter"
)

// AuthedHandle is a route handler that runs only for an authenticated caller.
type AuthedHandle func(w http.ResponseWriter, r *http.Request, ps httprouter.Params, id auth.Identity)

type Verifier interface {
	Verify(header string) (auth.Identity, error)
}

// Authenticate gates next behind a valid bearer token and passes the caller's
// identity along explicitly.
func Authenticate(v Verifier, next AuthedHandle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id, err := v.Verify(auth.BearerHeader(r))
		if err != nil {
			msg := "Unauthorized"
			if errors.Is(err, auth.ErrInvalidToken) {
				msg = "Invalid token"
			}
			utils.RespondWithError(w, http.StatusUnauthorized, msg)
			return
		}
		next(w, r, ps, id)
	}
}

// Instrument records request count and latency under the route pattern.
func Instrument(route string, next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r, ps)
		metrics.RecordRequest(r.Method, route, sw.status, time.Since(start))
	}
}

func RecoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logging.Ctx(r.Context()).Error().Interface("panic", err).Str("path", r.URL.Path).Msg("panic recovered")
				utils.RespondWithError(w, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// RequestLogger tags each request with an id and logs it once it completes.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = logging.NewRequestID()
		}
		w.Header().Set("X-Request-ID", reqID)
		r = r.WithContext(logging.ContextWithRequestID(r.Context(), reqID))

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		logging.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// Hijack is required by the websocket upgrade on /ws/feed.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.wroteHeader = true
	w.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
