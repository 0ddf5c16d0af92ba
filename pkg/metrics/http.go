package metrics

import (
	"net/http"
	"strconv"
	"time"
)

// InstrumentTransport counts outbound requests per host and status code and
// records their latency. Transport failures are counted with code "error".
func InstrumentTransport(reg *Registry, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := base.RoundTrip(req)

		host := req.URL.Host
		code := "error"
		if err == nil {
			code = strconv.Itoa(resp.StatusCode)
		}
		reg.Counter(WithLabels("lemmy_upstream_requests_total", "host", host, "code", code),
			"Outbound requests to remote instances.").Inc()
		reg.Histogram(WithLabels("lemmy_upstream_request_duration_seconds", "host", host),
			"Outbound request latency.", nil).Since(start)
		return resp, err
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Middleware counts inbound requests per route and status and records their
// latency. route maps a request to a low-cardinality label; it runs after the
// handler so routers can report the matched pattern.
func Middleware(reg *Registry, route func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)

			name := r.URL.Path
			if route != nil {
				name = route(r)
			}
			reg.Counter(WithLabels("lemmy_http_requests_total", "route", name, "code", strconv.Itoa(sw.status)),
				"Inbound HTTP requests.").Inc()
			reg.Histogram(WithLabels("lemmy_http_request_duration_seconds", "route", name),
				"Inbound request latency.", nil).Since(start)
		})
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
