package account

import (
	"encoding/json"
	"strconv"
	"strings"
)

type EventType string

const (
	EventFilled          EventType = "filled"
	EventPartiallyFilled EventType = "partially_filled"
	EventCancelled       EventType = "cancelled"
)

type OrderEvent struct {
	Type       EventType
	OrderID    string
	Pair       string
	Side       string
	Price      float64
	Size       float64
	FilledSize float64
	TimeMS     int64
}

// ParseOrderEvent decodes one private-channel message. Prices and sizes
// arrive as decimal strings or numbers depending on the venue gateway.
func ParseOrderEvent(raw json.RawMessage) (OrderEvent, bool) {
	var payload struct {
		Channel string `json:"channel"`
		Data    struct {
			Status     string          `json:"status"`
			OrderID    string          `json:"order_id"`
			Pair       string          `json:"pair"`
			Side       string          `json:"side"`
			Price      json.RawMessage `json:"price"`
			Size       json.RawMessage `json:"size"`
			FilledSize json.RawMessage `json:"filled_size"`
			TimeMS     int64           `json:"time_ms"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return OrderEvent{}, false
	}
	if payload.Channel != "orders" || payload.Data.OrderID == "" {
		return OrderEvent{}, false
	}
	var eventType EventType
	switch strings.ToLower(payload.Data.Status) {
	case "filled":
		eventType = EventFilled
	case "partially_filled", "partial_fill":
		eventType = EventPartiallyFilled
	case "cancelled", "canceled":
		eventType = EventCancelled
	default:
		return OrderEvent{}, false
	}
	return OrderEvent{
		Type:       eventType,
		OrderID:    payload.Data.OrderID,
		Pair:       payload.Data.Pair,
		Side:       strings.ToLower(payload.Data.Side),
		Price:      rawFloat(payload.Data.Price),
		Size:       rawFloat(payload.Data.Size),
		FilledSize: rawFloat(payload.Data.FilledSize),
		TimeMS:     payload.Data.TimeMS,
	}, true
}

func rawFloat(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	s := strings.Trim(string(raw), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}
