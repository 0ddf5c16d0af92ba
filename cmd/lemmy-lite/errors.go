package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lemmylite/lemmy-lite/engine/domain"
	"github.com/lemmylite/lemmy-lite/pkg/mid"
	"github.com/lemmylite/lemmy-lite/pkg/resilience"
)

// errorStatus maps each domain sentinel to one HTTP status and a stable code.
// The first matching row wins. An open circuit breaker and an upstream 404 are
// checked before the table.
var errorStatus = []struct {
	target error
	status int
	code   string
}{
	{domain.ErrInvalidInstance, http.StatusBadRequest, "invalid_instance"},
	{domain.ErrInvalidParam, http.StatusBadRequest, "invalid_param"},
	{domain.ErrCommentNotFound, http.StatusNotFound, "comment_not_found"},
	{domain.ErrPayloadTooLarge, http.StatusBadGateway, "payload_too_large"},
	{domain.ErrDecode, http.StatusBadGateway, "decode_error"},
	{domain.ErrUpstream, http.StatusBadGateway, "upstream_error"},
	{domain.ErrNetwork, http.StatusGatewayTimeout, "network_error"},
}

type errorBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Upstream  int    `json:"upstream_status,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func classify(err error) (int, errorBody) {
	body := errorBody{Error: "internal", Message: err.Error()}

	if errors.Is(err, resilience.ErrCircuitOpen) {
		body.Error = "upstream_unavailable"
		return http.StatusServiceUnavailable, body
	}

	var ue *domain.UpstreamError
	if errors.As(err, &ue) {
		body.Upstream = ue.Status
		if ue.Status == http.StatusNotFound {
			body.Error = "not_found"
			return http.StatusNotFound, body
		}
	}
	for _, row := range errorStatus {
		if errors.Is(err, row.target) {
			body.Error = row.code
			return row.status, body
		}
	}
	return http.StatusInternalServerError, body
}

func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, body := classify(err)
	body.RequestID = mid.RequestIDFrom(r.Context())
	if status >= http.StatusInternalServerError {
		log.Warn("request failed",
			"request_id", body.RequestID,
			"path", r.URL.Path,
			"status", status,
			"err", err,
		)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
