package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// FillAudit is the durable record of a completed fill. Scheduler timers are
// deliberately not persisted; only the audit trail survives a restart.
type FillAudit struct {
	OrderID string    `json:"order_id"`
	Pair    string    `json:"pair"`
	Side    string    `json:"side"`
	Price   float64   `json:"price"`
	Size    float64   `json:"size"`
	Time    time.Time `json:"time"`
}

func AppendFillAudit(ctx context.Context, store Store, audit FillAudit) error {
	if store == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	payload, err := json.Marshal(audit)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("fill:%d:%s", audit.Time.UTC().UnixNano(), audit.OrderID)
	return store.Set(ctx, key, string(payload))
}
