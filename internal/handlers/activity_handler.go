package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/arnavchau/authd/internal/clickhouse"
	"github.com/arnavchau/authd/internal/logger"
	"github.com/arnavchau/authd/internal/middleware"
	"github.com/arnavchau/authd/internal/service"
)

const activityLimit = 20

// ActivitySource reads back recorded auth events for an account.
type ActivitySource interface {
	GetRecentEvents(ctx context.Context, email string, limit int) ([]clickhouse.AuthEvent, error)
}

// ActivityHandler serves the recent sign-in activity of the
// authenticated account, fed by the audit pipeline.
type ActivityHandler struct {
	users  *service.UserService
	source ActivitySource
	log    *logger.Logger
}

func NewActivityHandler(users *service.UserService, source ActivitySource) *ActivityHandler {
	return &ActivityHandler{
		users:  users,
		source: source,
		log:    logger.New("activity-handler"),
	}
}

type ActivityEntry struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	IP         string    `json:"ip,omitempty"`
	Browser    string    `json:"browser,omitempty"`
	OS         string    `json:"os,omitempty"`
	DeviceType string    `json:"device_type,omitempty"`
}

type ActivityResponse struct {
	Events []ActivityEntry `json:"events"`
}

// Activity expects to run behind the authorization gate, which puts the
// token subject into the request context.
func (h *ActivityHandler) Activity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.users.Profile(r.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		h.log.Error("Failed to load account for activity: %v", err)
		respondServerError(w, err)
		return
	}

	events, err := h.source.GetRecentEvents(r.Context(), user.Email, activityLimit)
	if err != nil {
		h.log.Error("Failed to load activity: %v", err)
		respondServerError(w, err)
		return
	}

	entries := make([]ActivityEntry, 0, len(events))
	for _, event := range events {
		entries = append(entries, ActivityEntry{
			Type:       event.EventType,
			OccurredAt: event.OccurredAt,
			IP:         event.IPAddress,
			Browser:    event.Browser,
			OS:         event.OS,
			DeviceType: event.DeviceType,
		})
	}

	respondJSON(w, http.StatusOK, ActivityResponse{Events: entries})
}
