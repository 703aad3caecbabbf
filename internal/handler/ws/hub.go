package ws

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"DashPull/internal/livecache"
	"DashPull/internal/usecase"
	xlogger "DashPull/pkg/logger"
)

// Update is one pushed resource refresh.
type Update struct {
	Resource  string      `json:"resource"`
	Value     interface{} `json:"value,omitempty"`
	FetchedAt time.Time   `json:"fetched_at"`
	Stale     bool        `json:"stale"`
	Error     string      `json:"error,omitempty"`
}

// Hub fans cache updates out to connected dashboard views. Slow clients
// lose intermediate frames, never gain a backlog.
type Hub struct {
	logger   *xlogger.Logger
	registry *usecase.Registry
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[string]*client
	// key → resource name, for reverse lookup on update
	keyNames map[string]string
}

// NewHub builds the hub and indexes registry keys.
func NewHub(logger *xlogger.Logger, registry *usecase.Registry) *Hub {
	h := &Hub{
		logger:   logger,
		registry: registry,
		clients:  make(map[string]*client),
		keyNames: make(map[string]string),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	for _, name := range registry.Names() {
		h.keyNames[registry.Key(name)] = name
	}
	return h
}

// Attach registers the hub on a cache store.
func (h *Hub) Attach(store *livecache.Store) {
	store.OnUpdate(h.onUpdate)
}

func (h *Hub) onUpdate(key string, snap livecache.Snapshot) {
	h.mu.RLock()
	name, known := h.keyNames[key]
	if !known {
		h.mu.RUnlock()
		return
	}

	upd := Update{
		Resource:  name,
		Value:     snap.Value,
		FetchedAt: snap.FetchedAt,
		Stale:     snap.Stale,
	}
	if snap.Err != nil {
		upd.Error = snap.Err.Error()
	}

	for _, c := range h.clients {
		c.push(upd)
	}
	h.mu.RUnlock()
}

// Handler upgrades /view/stream requests.
func (h *Hub) Handler(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &client{
		id:      uuid.NewString(),
		hub:     h,
		conn:    conn,
		send:    make(chan Update, 16),
		wants:   make(map[string]bool),
		closing: make(chan struct{}),
	}

	h.mu.Lock()
	h.clients[cl.id] = cl
	h.mu.Unlock()
	h.logger.Debug("ws client connected", xlogger.String("client", cl.id))

	go cl.writeLoop()
	go cl.readLoop()
	return nil
}

func (h *Hub) drop(cl *client) {
	h.mu.Lock()
	_, present := h.clients[cl.id]
	delete(h.clients, cl.id)
	h.mu.Unlock()

	if present {
		close(cl.closing)
		_ = cl.conn.Close()
		h.logger.Debug("ws client disconnected", xlogger.String("client", cl.id))
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.drop(c)
	}
}
