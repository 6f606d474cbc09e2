package notifier

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"shopapp/internal/usecase"

	"github.com/stretchr/testify/assert"
)

func testHub() *Hub {
	return NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestNotifyNewOrder_Envelope(t *testing.T) {
	h := testHub()

	h.NotifyNewOrder(usecase.OrderOutput{ID: 42, OrderNumber: "#12345678001"})

	msg := <-h.broadcast

	var env struct {
		Event string `json:"event"`
		Data  struct {
			Order     usecase.OrderOutput `json:"order"`
			PlaySound bool                `json:"playSound"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, EventOrderNew, env.Event)
	assert.Equal(t, int64(42), env.Data.Order.ID)
	// 新規注文は管理画面で音を鳴らす
	assert.True(t, env.Data.PlaySound)
}

func TestNotifyStatusUpdated_Envelope(t *testing.T) {
	h := testHub()

	h.NotifyStatusUpdated(usecase.OrderOutput{ID: 42, Status: "accepted"})

	msg := <-h.broadcast

	var env struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, EventOrderStatusUpdated, env.Event)
}

func TestEmit_DropsWhenBufferFull(t *testing.T) {
	h := testHub()

	// バッファを使い切っても呼び出し元はブロックしない
	for i := 0; i < 100; i++ {
		h.NotifyStatusUpdated(usecase.OrderOutput{ID: int64(i)})
	}

	assert.LessOrEqual(t, len(h.broadcast), 64)
}
