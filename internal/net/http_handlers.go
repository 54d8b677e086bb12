// Package net exposes the hub over HTTP.
package net

import (
	"encoding/json"
	nethttp "net/http"
	"time"

	"zombie-siege/internal/hub"
	"zombie-siege/internal/net/ws"
	"zombie-siege/internal/telemetry"
	"zombie-siege/logging"
)

type HTTPHandlerConfig struct {
	Logger    telemetry.Logger
	QueueSize int
	TickRate  int
	// LoggingStats reports the structured logging router counters.
	LoggingStats func() logging.RouterStats
}

func NewHTTPHandler(h *hub.Hub, cfg HTTPHandlerConfig) nethttp.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = telemetry.DiscardLogger()
	}

	mux := nethttp.NewServeMux()

	wsHandler := ws.NewHandler(h, ws.HandlerConfig{Logger: logger, QueueSize: cfg.QueueSize})
	mux.HandleFunc("/ws", wsHandler.Handle)

	mux.HandleFunc("/health", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("/diagnostics", func(w nethttp.ResponseWriter, r *nethttp.Request) {
		payload := struct {
			Status     string               `json:"status"`
			ServerTime int64                `json:"serverTime"`
			TickRate   int                  `json:"tickRate"`
			Hub        hub.Diagnostics      `json:"hub"`
			Logging    *logging.RouterStats `json:"logging,omitempty"`
		}{
			Status:     "ok",
			ServerTime: time.Now().UnixMilli(),
			TickRate:   cfg.TickRate,
			Hub:        h.DiagnosticsSnapshot(),
		}
		if cfg.LoggingStats != nil {
			stats := cfg.LoggingStats()
			payload.Logging = &stats
		}

		data, err := json.Marshal(payload)
		if err != nil {
			logger.Printf("failed to encode diagnostics: %v", err)
			httpError(w, "failed to encode", nethttp.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	})

	return mux
}

func httpError(w nethttp.ResponseWriter, message string, status int) {
	nethttp.Error(w, message, status)
}
