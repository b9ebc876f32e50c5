package logging

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

// Middleware logs one line per request. 5xx responses log at error level and
// 4xx at warn. Panics in next are recovered and answered with a 500.
func Middleware(l *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			defer func() {
				if p := recover(); p != nil {
					l.ErrorContext(r.Context(), "request panic",
						Method(r.Method),
						Path(r.URL.Path),
						slog.Any("panic", p),
						slog.String("stack", string(debug.Stack())),
					)
					http.Error(rec, "Internal server error", http.StatusInternalServerError)
				}

				level := slog.LevelInfo
				switch {
				case rec.status >= http.StatusInternalServerError:
					level = slog.LevelError
				case rec.status >= http.StatusBadRequest:
					level = slog.LevelWarn
				}

				l.WithContext(r.Context()).LogAttrs(r.Context(), level, "request completed",
					Method(r.Method),
					Path(r.URL.Path),
					Status(rec.status),
					Duration(time.Since(start)),
					slog.Int("bytes", rec.bytes),
				)
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
