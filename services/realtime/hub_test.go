package realtimesvc

import (
	"encoding/json"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logsvc "github.com/tmalache/chuo/services/logger"
)

func waitForCount(t *testing.T, h *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.ClientCount() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("ClientCount() = %d, want %d", h.ClientCount(), want)
}

func TestHub(t *testing.T) {
	h := NewHub(logsvc.NewPlainLogger(log.New(io.Discard, "", 0)))
	go h.Run()

	c := &client{hub: h, send: make(chan []byte, 1)}
	h.register <- c
	waitForCount(t, h, 1)

	h.Broadcast("ping", map[string]string{"msg": "hello"})
	select {
	case payload := <-c.send:
		var ev Event
		require.NoError(t, json.Unmarshal(payload, &ev))
		assert.Equal(t, "ping", ev.Event)
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast never reached the subscriber")
	}

	t.Run("slow subscriber dropped", func(t *testing.T) {
		slow := &client{hub: h, send: make(chan []byte)} // unbuffered, never read
		h.register <- slow
		waitForCount(t, h, 2)

		h.Broadcast("tick", nil)
		waitForCount(t, h, 1)
	})

	h.unregister <- c
	waitForCount(t, h, 0)
}
