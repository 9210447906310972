package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Akram409/leafora-web-server/internal/identity"
	"github.com/Akram409/leafora-web-server/internal/middleware"
	"github.com/Akram409/leafora-web-server/internal/services"
)

var presenceUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

const (
	presenceReadLimit  = 64 * 1024
	presenceReadWindow = 90 * time.Second
)

// PresenceHandler keeps a user's isOnline/lastActive fields in sync with an
// open WebSocket connection: online while connected, offline on disconnect.
type PresenceHandler struct {
	users   *services.UserService
	gateway identity.Gateway
}

func NewPresenceHandler(users *services.UserService, gateway identity.Gateway) *PresenceHandler {
	return &PresenceHandler{users: users, gateway: gateway}
}

// Connect authenticates the request, upgrades it and tracks presence for the
// lifetime of the connection. Browser clients may pass the token via the
// `token` query parameter since they cannot set headers on WebSocket dials.
func (h *PresenceHandler) Connect(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	uid, err := h.gateway.VerifyToken(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := presenceUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	if err := h.users.SetPresence(r.Context(), uid, true); err != nil {
		log.Printf("presence: mark online %s: %v", uid, err)
	}
	defer func() {
		// The request context may be torn down by the time the socket
		// closes, so the offline write gets its own deadline.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.users.SetPresence(ctx, uid, false); err != nil {
			log.Printf("presence: mark offline %s: %v", uid, err)
		}
	}()

	conn.SetReadLimit(presenceReadLimit)
	conn.SetReadDeadline(time.Now().Add(presenceReadWindow))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(presenceReadWindow))
		return nil
	})

	// Drain the connection until the client goes away. Any inbound frame
	// counts as activity and extends the deadline.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		conn.SetReadDeadline(time.Now().Add(presenceReadWindow))
	}
}
