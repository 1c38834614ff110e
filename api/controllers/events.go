package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/milosbg/mbg-admin-backend/api/responses"
	"github.com/milosbg/mbg-admin-backend/internal/events"
	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
	"github.com/milosbg/mbg-admin-backend/pkg/logger"
)

const defaultHeartbeat = 25 * time.Second

// EventSource hands out live event subscriptions.
type EventSource interface {
	Subscribe() (<-chan events.Event, func())
}

type helloEvent struct {
	Type string `json:"type"`
	T    int64  `json:"t"`
}

// ProductEvents streams stock changes as server-sent events. A hello event
// is sent on connect and a comment line keeps idle connections open.
func ProductEvents(source EventSource, heartbeat time.Duration, logg *logger.Logger) http.HandlerFunc {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if source == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "event stream unavailable"))
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		stream, cancel := source.Subscribe()
		defer cancel()

		h := w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache, no-transform")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		if err := writeEvent(w, helloEvent{Type: "hello", T: time.Now().UnixMilli()}); err != nil {
			return
		}
		flusher.Flush()

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
					return
				}
				flusher.Flush()
			case event, open := <-stream:
				if !open {
					return
				}
				if err := writeEvent(w, event); err != nil {
					if logg != nil {
						logg.WarnErr(r.Context(), "events.stream.write_failed", err)
					}
					return
				}
				flusher.Flush()
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", data)
	return err
}
