package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/khanhtranq/inventory-service/internal/apperr"
	"github.com/khanhtranq/inventory-service/internal/http/apierr"
)

// responder centralizes JSON encoding and error mapping for handlers.
type responder struct {
	logger *slog.Logger
}

func (rs responder) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		rs.logger.ErrorContext(r.Context(), "error encoding response",
			slog.Any("error", err))
	}
}

func (rs responder) writeError(w http.ResponseWriter, r *http.Request, err error) {
	res := apierr.New(err)

	logLevel := slog.LevelInfo
	if res.StatusCode >= 500 {
		logLevel = slog.LevelError
	} else if res.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}
	rs.logger.Log(r.Context(), logLevel, "http response error", slog.Any("error", err))

	rs.writeJSON(w, r, res.StatusCode, res)
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.ValidationErr.WrapParent(fmt.Errorf("decode request body: %w", err))
	}
	return nil
}
