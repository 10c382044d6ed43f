package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"occurrences/internal/logger"
	"occurrences/internal/services/notify"

	"github.com/gorilla/websocket"
)

func startHub(t *testing.T) (*HubService, *websocket.Conn) {
	t.Helper()

	hub := NewHubService(logger.NewNop())
	go hub.Run()
	t.Cleanup(hub.Stop)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("viewer never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return hub, conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]json.RawMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage failed: %v", err)
	}
	var ev map[string]json.RawMessage
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("invalid event %s: %v", msg, err)
	}
	return ev
}

func TestHub_DeliversNotification(t *testing.T) {
	hub, conn := startHub(t)

	hub.ShowNotification(notify.Notification{ID: 7, Message: "hello", Severity: notify.Success, Class: notify.Success.Class()})

	ev := readEvent(t, conn)
	if string(ev["type"]) != `"notification"` {
		t.Errorf("type = %s, expected notification", ev["type"])
	}
	var n notify.Notification
	json.Unmarshal(ev["data"], &n)
	if n.ID != 7 || n.Message != "hello" || n.Class != "bg-green-600" {
		t.Errorf("data = %+v", n)
	}
}

func TestHub_PreservesOrder(t *testing.T) {
	hub, conn := startHub(t)

	hub.Publish(EventStats, 1)
	hub.Publish(EventGallery, 2)
	hub.Publish(EventMarkers, 3)

	for _, expected := range []string{EventStats, EventGallery, EventMarkers} {
		ev := readEvent(t, conn)
		if string(ev["type"]) != `"`+expected+`"` {
			t.Errorf("type = %s, expected %s", ev["type"], expected)
		}
	}
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHubService(logger.NewNop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < broadcastSize*2; i++ {
			hub.Publish(EventStats, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked without a running hub")
	}
}
