package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fatih/color"

	"fotoforge/pkg/logger"
)

// statusWriter captures the status code and size of a response.
type statusWriter struct {
	http.ResponseWriter
	statusCode int
	length     int
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	w.length += len(b)
	return w.ResponseWriter.Write(b)
}

var (
	cGet     = color.New(color.FgHiCyan, color.Bold).SprintFunc()
	cPost    = color.New(color.FgHiGreen, color.Bold).SprintFunc()
	cPut     = color.New(color.FgHiYellow, color.Bold).SprintFunc()
	cDelete  = color.New(color.FgHiRed, color.Bold).SprintFunc()
	cPatch   = color.New(color.FgHiMagenta, color.Bold).SprintFunc()
	cDefault = color.New(color.FgWhite, color.Bold).SprintFunc()

	c200 = color.New(color.FgGreen, color.Bold).SprintFunc()
	c400 = color.New(color.FgYellow, color.Bold).SprintFunc()
	c500 = color.New(color.FgRed, color.Bold).SprintFunc()

	cTime = color.New(color.FgHiBlack).SprintFunc()
	cPath = color.New(color.FgWhite).SprintFunc()
)

// LoggerMiddleware prints one coloured line per request. Only the path is
// logged, never the query string or body.
func LoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)

		logger.LogRaw(fmt.Sprintf("%s %s %s %s %s %s",
			cTime(start.Format("2006-01-02 15:04:05")),
			methodLabel(r.Method),
			cPath(r.URL.Path),
			statusLabel(ww.statusCode),
			cTime("|"),
			cTime(time.Since(start).String()),
		))
	})
}

func statusLabel(code int) string {
	s := fmt.Sprintf("%d", code)
	switch {
	case code >= 500:
		return c500(s)
	case code >= 400:
		return c400(s)
	default:
		return c200(s)
	}
}

func methodLabel(method string) string {
	label := fmt.Sprintf("%-8s", "["+method+"]")
	switch method {
	case http.MethodGet:
		return cGet(label)
	case http.MethodPost:
		return cPost(label)
	case http.MethodPut:
		return cPut(label)
	case http.MethodDelete:
		return cDelete(label)
	case http.MethodPatch:
		return cPatch(label)
	default:
		return cDefault(label)
	}
}
