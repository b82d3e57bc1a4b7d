package feed

import (
	"context"
	"crypto/subtle"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/researchloop/outreach/backend/internal/model/engagement"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// Subscriber hands out notification streams.
type Subscriber interface {
	Subscribe() (<-chan engagement.Notification, func())
}

// Options restricts who may open the feed. An empty Token disables the
// endpoint. With no AllowedOrigins only same-origin browsers are accepted.
type Options struct {
	Token          string
	AllowedOrigins []string
}

// Handler streams engagement notifications to operators over WebSocket.
type Handler struct {
	hub      Subscriber
	token    string
	upgrader websocket.Upgrader
}

// New 创建参与事件推送处理器
func New(hub Subscriber, opts Options) *Handler {
	h := &Handler{
		hub:   hub,
		token: strings.TrimSpace(opts.Token),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	if len(opts.AllowedOrigins) > 0 {
		allowed := make(map[string]struct{}, len(opts.AllowedOrigins))
		for _, o := range opts.AllowedOrigins {
			if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
				allowed[strings.ToLower(o)] = struct{}{}
			}
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[strings.ToLower(origin)]
			return ok
		}
	}
	return h
}

// RegisterRoutes 注册推送路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/engagement/feed", h.handleFeed)
}

type frame struct {
	Type      string                   `json:"type"`
	Data      *engagement.Notification `json:"data,omitempty"`
	Timestamp int64                    `json:"timestamp"`
}

func (h *Handler) handleFeed(w http.ResponseWriter, r *http.Request) {
	if h.token == "" {
		http.Error(w, "engagement feed disabled", http.StatusServiceUnavailable)
		return
	}
	if !h.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[feed] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	updates, cancelSub := h.hub.Subscribe()
	defer cancelSub()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})
	go readLoop(conn, cancel)

	log.Printf("[feed] operator connected from %s", r.RemoteAddr)
	if err := writeFrame(conn, frame{Type: "connected", Timestamp: time.Now().Unix()}); err != nil {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-updates:
			if !ok {
				return
			}
			if err := writeFrame(conn, frame{Type: "engagement", Data: &n, Timestamp: n.At.Unix()}); err != nil {
				log.Printf("[feed] write failed: %v", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// authorized accepts the operator token as a bearer header or, for browsers
// that cannot set headers on a WebSocket, as the access_token query value.
func (h *Handler) authorized(r *http.Request) bool {
	got := r.URL.Query().Get("access_token")
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		got = strings.TrimPrefix(auth, "Bearer ")
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(h.token)) == 1
}

// readLoop drains client frames so control messages are processed; the
// feed itself is one-way.
func readLoop(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[feed] read error: %v", err)
			}
			return
		}
	}
}

func writeFrame(conn *websocket.Conn, f frame) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(f)
}
