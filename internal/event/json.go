package event

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// JSON encoder for the human-readable wire form of book events.
// Prices are formatted as 4-decimal strings, timestamps as int64 nanos.

// EncodeJSON encodes a Message into JSON bytes.
func EncodeJSON(m *Message) ([]byte, error) {
	obj := msgToMap(m)
	if obj == nil {
		return nil, fmt.Errorf("unsupported event type: %c", m.Type)
	}
	return json.Marshal(obj)
}

// EncodeBatchJSON encodes a batch of messages as a JSON array.
func EncodeBatchJSON(msgs []Message) ([]byte, error) {
	objs := make([]map[string]any, 0, len(msgs))
	for i := range msgs {
		obj := msgToMap(&msgs[i])
		if obj == nil {
			return nil, fmt.Errorf("unsupported event type: %c", msgs[i].Type)
		}
		objs = append(objs, obj)
	}
	return json.Marshal(objs)
}

func msgToMap(m *Message) map[string]any {
	switch m.Type {
	case TypeOrderAccepted:
		return map[string]any{
			"type":      "order_accepted",
			"timestamp": m.Timestamp,
			"ticker":    m.Ticker,
			"orderId":   m.OrderID,
			"side":      m.Side.String(),
			"quantity":  m.Quantity,
			"price":     formatPrice(m.Price),
		}

	case TypeOrderRejected:
		return map[string]any{
			"type":      "order_rejected",
			"timestamp": m.Timestamp,
			"ticker":    m.Ticker,
			"side":      m.Side.String(),
			"quantity":  m.Quantity,
			"price":     formatPrice(m.Price),
			"reason":    m.Reason,
		}

	case TypeFill:
		return map[string]any{
			"type":        "fill",
			"timestamp":   m.Timestamp,
			"ticker":      m.Ticker,
			"matchNumber": m.MatchNumber,
			"buyId":       m.BuyID,
			"sellId":      m.SellID,
			"quantity":    m.Quantity,
			"price":       formatPrice(m.Price),
		}

	default:
		return nil
	}
}

func formatPrice(p float64) string {
	return strconv.FormatFloat(p, 'f', 4, 64)
}
