package market

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Venue feeds quote prices either as numbers or decimal strings; both forms
// occur in the wild, so parsing accepts either.
func floatFromAny(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		return f, err == nil
	}
	return 0, false
}

func stringFromAny(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func channelFromPayload(payload map[string]any) string {
	return stringFromAny(payload["channel"])
}

func parseTicker(payload map[string]any) (string, Book, bool) {
	data, ok := payload["data"].(map[string]any)
	if !ok {
		return "", Book{}, false
	}
	pair := stringFromAny(data["pair"])
	if pair == "" {
		return "", Book{}, false
	}
	var book Book
	if bid, ok := floatFromAny(data["bid"]); ok {
		book.Bid = bid
	}
	if ask, ok := floatFromAny(data["ask"]); ok {
		book.Ask = ask
	}
	if last, ok := floatFromAny(data["last"]); ok {
		book.Last = last
	}
	if book.Bid == 0 && book.Ask == 0 && book.Last == 0 {
		return "", Book{}, false
	}
	return pair, book, true
}
