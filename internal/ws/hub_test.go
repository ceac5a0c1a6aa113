package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestSendQueuesTypedMessage(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t))

	h.Send(TypeStockUpdate, map[string]int{"stock": 4})

	raw := <-h.Broadcast
	var msg struct {
		Type string         `json:"type"`
		Data map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(raw, &msg))
	assert.Equal(t, TypeStockUpdate, msg.Type)
	assert.Equal(t, 4, msg.Data["stock"])
}

func TestSendDropsWhenQueueFull(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t))
	for i := 0; i < cap(h.Broadcast); i++ {
		h.Send(TypeStockUpdate, i)
	}

	// must not block
	h.Send(TypeTransactionCreated, "extra")
	assert.Len(t, h.Broadcast, cap(h.Broadcast))
}

func TestRunStops(t *testing.T) {
	h := NewHub(zaptest.NewLogger(t))
	finished := make(chan struct{})
	go func() {
		h.Run()
		close(finished)
	}()

	h.Stop()
	<-finished
	assert.Equal(t, 0, h.Count())
}
