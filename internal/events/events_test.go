package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvent_JSONShape(t *testing.T) {
	e := Event{
		Action:     ActionCreated,
		ProductoID: "65f000000000000000000001",
		Nombre:     "silla",
		OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	b, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"action": "created",
		"producto_id": "65f000000000000000000001",
		"nombre": "silla",
		"occurred_at": "2026-01-02T03:04:05Z"
	}`, string(b))
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), Event{Action: ActionDeleted}))
	assert.NoError(t, p.Close())
}
