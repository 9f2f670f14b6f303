package chat_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nextlearn/nextlearn-lms/internal/chat"
)

// wsPair dials a test server and hands back both ends of one websocket
// connection.
func wsPair(t *testing.T) (server, client *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	accepted := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		accepted <- c
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	select {
	case s := <-accepted:
		t.Cleanup(func() { _ = s.Close() })
		return s, c
	case <-time.After(2 * time.Second):
		t.Fatal("server side never accepted")
		return nil, nil
	}
}

func TestBroadcastDeliversToRoom(t *testing.T) {
	hub := chat.NewHub()
	server, client := wsPair(t)
	hub.Join("course-1", server)

	hub.Broadcast("course-1", []byte(`{"text":"hello"}`))

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := client.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(msg) != `{"text":"hello"}` {
		t.Errorf("payload = %s", msg)
	}
}

func TestBroadcastConcurrentSenders(t *testing.T) {
	hub := chat.NewHub()
	server, client := wsPair(t)
	hub.Join("course-1", server)

	const senders = 8
	const perSender = 200
	payload := bytes.Repeat([]byte("x"), 64<<10)

	received := make(chan int, 1)
	go func() {
		n := 0
		_ = client.SetReadDeadline(time.Now().Add(10 * time.Second))
		for n < senders*perSender {
			if _, _, err := client.ReadMessage(); err != nil {
				break
			}
			n++
		}
		received <- n
	}()

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				hub.Broadcast("course-1", payload)
			}
		}()
	}
	wg.Wait()

	if n := <-received; n != senders*perSender {
		t.Errorf("delivered %d messages, want %d", n, senders*perSender)
	}
}

func TestBroadcastDropsDeadConnections(t *testing.T) {
	hub := chat.NewHub()
	server, client := wsPair(t)
	hub.Join("course-1", server)

	_ = client.Close()
	_ = server.Close()

	// must not panic and must prune the dead member
	hub.Broadcast("course-1", []byte("after close"))
	hub.Broadcast("course-1", []byte("and again"))
}
