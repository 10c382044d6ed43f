package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"occurrences/internal/dto"
	"occurrences/internal/logger"
	"occurrences/internal/services/notify"

	"github.com/gorilla/websocket"
	geojson "github.com/paulmach/go.geojson"
)

const (
	EventNotification = "notification"
	EventDismiss      = "dismiss"
	EventConfirm      = "confirm"
	EventStats        = "stats"
	EventGallery      = "gallery"
	EventMarkers      = "markers"

	writeWait     = 10 * time.Second
	broadcastSize = 64
)

// Event is the envelope pushed to every viewer.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// HubService fans view updates and notifications out to connected viewers.
type HubService struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	stopOnce   sync.Once
	mutex      sync.RWMutex
	logger     *logger.Logger
}

func NewHubService(logger *logger.Logger) *HubService {
	return &HubService{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, broadcastSize),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *HubService) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer connected. Total: %d", count)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.Close()
			}
			count := len(h.clients)
			h.mutex.Unlock()
			h.logger.Info("Viewer disconnected. Total: %d", count)

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
					h.logger.Error("Error sending message: %v", err)
					delete(h.clients, client)
					client.Close()
				}
			}
			h.mutex.Unlock()

		case <-h.done:
			h.mutex.Lock()
			for client := range h.clients {
				client.Close()
				delete(h.clients, client)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// Stop ends Run and closes every viewer.
func (h *HubService) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

func (h *HubService) Register(client *websocket.Conn) {
	select {
	case h.register <- client:
	case <-h.done:
		client.Close()
	}
}

func (h *HubService) Unregister(client *websocket.Conn) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues an event for every viewer. It never blocks: when the queue
// is full the event is dropped and logged.
func (h *HubService) Publish(eventType string, data interface{}) {
	message, err := json.Marshal(Event{Type: eventType, Data: data})
	if err != nil {
		h.logger.Error("Error encoding %s event: %v", eventType, err)
		return
	}

	select {
	case h.broadcast <- message:
	default:
		h.logger.Warning("Broadcast queue full, dropping %s event", eventType)
	}
}

func (h *HubService) ShowNotification(n notify.Notification) {
	h.Publish(EventNotification, n)
}

func (h *HubService) DismissNotification(id uint64) {
	h.Publish(EventDismiss, map[string]uint64{"id": id})
}

func (h *HubService) ShowConfirmation(p notify.Prompt) {
	h.Publish(EventConfirm, p)
}

func (h *HubService) RenderStats(stats dto.RecordStats) {
	h.Publish(EventStats, stats)
}

func (h *HubService) RenderGallery(view dto.GalleryView) {
	h.Publish(EventGallery, view)
}

func (h *HubService) RenderMarkers(markers *geojson.FeatureCollection) {
	h.Publish(EventMarkers, markers)
}

func (h *HubService) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}
