package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"FinSignal/internal/domain/models"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubBroadcastsEvents(t *testing.T) {
	hub := NewHub(nil)
	e := echo.New()
	hub.RegisterRoutes(e)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/signals"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	evt := models.DecisionEvent{
		ID:       "evt-1",
		Type:     models.EventSignalCreated,
		Decision: models.SignalDecision{ID: 1, Asset: "EUR/USD", Direction: models.DirectionSell, Confidence: 70},
		At:       time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, hub.PublishDecision(context.Background(), evt))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var got models.DecisionEvent
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, evt, got)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubPublishWithoutClients(t *testing.T) {
	hub := NewHub(nil)
	assert.NoError(t, hub.PublishDecision(context.Background(), models.DecisionEvent{Type: models.EventSignalSettled}))
	hub.Close()
	assert.Zero(t, hub.Len())
}
