package recovery

import (
	"net/http"
	"runtime/debug"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/gab-cat/cold-start-sub000/internal/metrics"
)

// New returns mux middleware that turns a handler panic into a logged 500.
// The body is only written when the handler had not started its reply.
func New(log zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tw := &trackingWriter{ResponseWriter: w}
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				route := routeTemplate(r)
				metrics.IncPanic(route)
				log.Error().
					Interface("panic", rec).
					Str("method", r.Method).
					Str("route", route).
					Str("user_id", mux.Vars(r)["userId"]).
					Str("remote", r.RemoteAddr).
					Bool("reply_started", tw.wrote).
					Bytes("stack", debug.Stack()).
					Msg("handler panic recovered")

				if tw.wrote {
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":"Internal Server Error","code":500}`))
			}()
			next.ServeHTTP(tw, r)
		})
	}
}

func routeTemplate(r *http.Request) string {
	if cur := mux.CurrentRoute(r); cur != nil {
		if tpl, err := cur.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

type trackingWriter struct {
	http.ResponseWriter
	wrote bool
}

func (t *trackingWriter) WriteHeader(code int) {
	t.wrote = true
	t.ResponseWriter.WriteHeader(code)
}

func (t *trackingWriter) Write(b []byte) (int, error) {
	t.wrote = true
	return t.ResponseWriter.Write(b)
}
