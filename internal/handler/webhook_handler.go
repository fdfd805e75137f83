// internal/handler/webhook_handler.go
package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/salesagentai/outreach-backend/internal/queue"
)

// WebhookHandler receives provider delivery events and hands them to the
// queue; the worker applies them to email rows asynchronously so the
// provider always gets a fast 200.
type WebhookHandler struct {
	Publisher *queue.Publisher
}

// providerEvent matches the provider's webhook payload. Providers post a
// JSON array of events per request.
type providerEvent struct {
	EmailID   string `json:"email_id"`
	Event     string `json:"event"`
	Reason    string `json:"reason"`
	Timestamp int64  `json:"timestamp"`
}

func (h *WebhookHandler) ReceiveEvents(w http.ResponseWriter, r *http.Request) {
	var events []providerEvent
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		http.Error(w, "invalid webhook payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	if h.Publisher == nil {
		http.Error(w, "event queue not configured", http.StatusServiceUnavailable)
		return
	}

	accepted := 0
	for _, ev := range events {
		if ev.EmailID == "" || ev.Event == "" {
			continue
		}
		err := h.Publisher.PublishDeliveryEvent(queue.DeliveryEvent{
			EmailID:   ev.EmailID,
			Event:     ev.Event,
			Reason:    ev.Reason,
			Timestamp: ev.Timestamp,
		})
		if err != nil {
			log.Println("⚠️ failed to enqueue delivery event:", err)
			continue
		}
		accepted++
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{
		"received": len(events),
		"accepted": accepted,
	})
}
