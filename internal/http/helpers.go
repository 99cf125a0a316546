package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func logRateLimited(ctx context.Context, r *http.Request, clientIP string) {
	slog.WarnContext(ctx, "Rate limit exceeded",
		"request_id", ctx.Value(requestIDKey),
		"client_ip", clientIP,
		"method", r.Method,
		"url", r.URL.Path)
}
