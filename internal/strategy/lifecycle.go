package strategy

import "time"

// RestingOrder is the lifecycle monitor's view of an active order. A zero
// CreatedAt means the venue id carries no creation time (paper orders); such
// orders have undefined age and are never considered stale.
type RestingOrder struct {
	ID        string
	CreatedAt time.Time
}

// StaleOrderIDs scans resting non-exempt orders and, when any of them has
// outlived maxAge, returns every id for cancellation. Partial staleness
// means the whole proposal set is outdated, so the sweep refreshes
// everything rather than just the stale leg.
func StaleOrderIDs(orders []RestingOrder, now time.Time, maxAge time.Duration) []string {
	stale := false
	for _, o := range orders {
		age, ok := OrderAge(o, now)
		if ok && age > maxAge {
			stale = true
			break
		}
	}
	if !stale {
		return nil
	}
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	return ids
}

func OrderAge(o RestingOrder, now time.Time) (time.Duration, bool) {
	if o.CreatedAt.IsZero() {
		return 0, false
	}
	return now.Sub(o.CreatedAt), true
}
