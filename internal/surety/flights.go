package surety

import (
	"context"
	"fmt"
	"strings"

	"github.com/Qiyd81/flightsurety-2/internal/model"
)

// RegisterFlight creates a flight for a registered, funded airline.  A key
// can be registered once; re-registration is rejected so existing policies
// keep pointing at the same record.
func (e *Engine) RegisterFlight(ctx context.Context, airline model.Account, code string, timestamp int64) (model.Flight, error) {
	var out model.Flight
	err := e.commit(ctx, true, func(t *txn) error {
		if err := e.requireActiveAirline(airline); err != nil {
			return err
		}
		code = strings.TrimSpace(code)
		if code == "" {
			return fmt.Errorf("%w: flight code is required", ErrInvalidInput)
		}
		if timestamp <= 0 {
			return fmt.Errorf("%w: departure timestamp must be positive", ErrInvalidInput)
		}
		key := model.FlightKey{Airline: airline, Code: code, Timestamp: timestamp}
		if _, ok := e.flightIdx[key]; ok {
			return fmt.Errorf("%w: flight %s", ErrAlreadyExists, key)
		}
		i := len(e.flights)
		e.flights = append(e.flights, model.Flight{Key: key, Status: model.StatusUnknown, Registered: true})
		e.flightIdx[key] = i
		e.flightsByAirline[airline] = append(e.flightsByAirline[airline], i)
		t.emit(Event{Type: EventFlightRegistered, Account: airline, Flight: flightRef(key)})
		out = e.flights[i]
		return nil
	})
	return out, err
}

// GetFlight returns the flight stored under key.
func (e *Engine) GetFlight(key model.FlightKey) (model.Flight, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.flightIdx[key]
	if !ok {
		return model.Flight{}, fmt.Errorf("%w: flight %s", ErrNotFound, key)
	}
	return e.flights[i], nil
}

// ListFlights returns an airline's flights in registration order.
func (e *Engine) ListFlights(airline model.Account) []model.Flight {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := e.flightsByAirline[airline]
	out := make([]model.Flight, 0, len(idx))
	for _, i := range idx {
		out = append(out, e.flights[i])
	}
	return out
}
