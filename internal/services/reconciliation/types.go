package reconciliation

import (
	"encoding/json"
	"time"
)

// Config carries the engine's tunables. PendingTTL is the operator-chosen
// lifetime for stuck pending payments; zero disables automatic
// cancellation and leaves them as a monitoring concern.
type Config struct {
	PendingTTL     time.Duration
	SweepMinAge    time.Duration
	SweepBatchSize int
}

// DefaultConfig leaves stuck payments alone and sweeps rows that have been
// pending for at least a minute, up to 100 per invocation.
func DefaultConfig() Config {
	return Config{
		PendingTTL:     0,
		SweepMinAge:    time.Minute,
		SweepBatchSize: 100,
	}
}

// event is a provider webhook reduced to what reconciliation needs:
// candidate transaction references, a raw status string, and the payload
// for the evidence trail.
type event struct {
	references []string
	status     string
	payload    map[string]interface{}
}

// Field names providers use to report the transaction reference. Different
// networks disagree, so every candidate is collected and tried in order.
var referenceFields = []string{
	"reference",
	"externalId",
	"external_id",
	"transactionId",
	"transaction_id",
	"x_reference_id",
}

func parseEvent(body []byte) (*event, error) {
	payload := map[string]interface{}{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}

	e := &event{payload: payload}

	for _, field := range referenceFields {
		if v, ok := payload[field].(string); ok && v != "" {
			e.references = append(e.references, v)
		}
	}
	if v, ok := payload["status"].(string); ok {
		e.status = v
	}

	// Nested shapes: Airtel wraps the transaction under data.transaction,
	// the card processor under data.object.
	if data, ok := payload["data"].(map[string]interface{}); ok {
		if tx, ok := data["transaction"].(map[string]interface{}); ok {
			if v, ok := tx["id"].(string); ok && v != "" {
				e.references = append(e.references, v)
			}
			if v, ok := tx["status"].(string); ok && e.status == "" {
				e.status = v
			}
		}
		if obj, ok := data["object"].(map[string]interface{}); ok {
			if v, ok := obj["id"].(string); ok && v != "" {
				e.references = append(e.references, v)
			}
			if meta, ok := obj["metadata"].(map[string]interface{}); ok {
				if v, ok := meta["reference"].(string); ok && v != "" {
					e.references = append(e.references, v)
				}
			}
			if v, ok := obj["status"].(string); ok && e.status == "" {
				e.status = v
			}
		}
	}

	return e, nil
}
