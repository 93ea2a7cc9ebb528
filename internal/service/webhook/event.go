// internal/service/webhook/event.go
package webhook

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// EventChargeCompleted is the only provider event the reconciler acts on.
const EventChargeCompleted = "charge.completed"

// Event is the strict decode of the provider's webhook envelope. Unknown
// shapes fail closed rather than being processed on a best guess.
type Event struct {
	Event string    `json:"event"`
	Data  EventData `json:"data"`
}

type EventData struct {
	ID       json.Number     `json:"id"`
	TxRef    string          `json:"tx_ref"`
	Status   string          `json:"status"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func decodeEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("malformed webhook body: %w", err)
	}
	if event.Event == "" {
		return nil, fmt.Errorf("webhook body has no event type")
	}
	if event.Event == EventChargeCompleted {
		if event.Data.TxRef == "" {
			return nil, fmt.Errorf("charge event has no transaction reference")
		}
		if event.Data.ID.String() == "" {
			return nil, fmt.Errorf("charge event has no gateway transaction id")
		}
	}
	return &event, nil
}
