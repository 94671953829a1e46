package surety

import (
	"context"
	"fmt"

	"github.com/Qiyd81/flightsurety-2/internal/model"
)

// SetEnabled flips the operational switch.  Only the owner may call it and
// it is the one mutation that works while the system is disabled.
func (e *Engine) SetEnabled(ctx context.Context, caller model.Account, enabled bool) error {
	return e.commit(ctx, false, func(t *txn) error {
		if caller != e.cfg.Owner {
			return fmt.Errorf("%w: only the owner may change the operational status", ErrUnauthorized)
		}
		if e.enabled == enabled {
			return nil
		}
		e.enabled = enabled
		t.emit(Event{Type: EventOperationalChanged, Account: caller, Enabled: &enabled})
		e.log.WithField("enabled", enabled).Info("surety: operational status changed")
		return nil
	})
}

// IsEnabled reports the operational switch.
func (e *Engine) IsEnabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}
