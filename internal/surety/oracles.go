package surety

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/Qiyd81/flightsurety-2/internal/model"
)

// Report describes what happened to a submitted oracle response.
type Report struct {
	// Counted is false when the oracle had already answered this request.
	Counted bool `json:"counted"`
	// Finalized is true when the request is finalized, whether by this
	// response or an earlier one.
	Finalized bool             `json:"finalized"`
	Status    model.StatusCode `json:"status_code"`
	// Agreeing is the number of oracles that reported the submitted code.
	Agreeing int `json:"agreeing"`
}

// RegisterOracle enrolls account as an oracle and assigns its three
// indexes.  The fee is kept by the platform.
func (e *Engine) RegisterOracle(ctx context.Context, account model.Account, fee decimal.Decimal) (model.Oracle, error) {
	var out model.Oracle
	err := e.commit(ctx, true, func(t *txn) error {
		if account.IsZero() {
			return fmt.Errorf("%w: oracle account is required", ErrInvalidInput)
		}
		if _, ok := e.oracleIdx[account]; ok {
			return fmt.Errorf("%w: oracle %s", ErrAlreadyExists, account)
		}
		if !model.IsWei(fee) || fee.LessThan(e.cfg.OracleRegistrationFee) {
			return fmt.Errorf("%w: registration fee is %s wei", ErrInvalidAmount, e.cfg.OracleRegistrationFee)
		}
		o := model.Oracle{Account: account, Indexes: e.assignIndexes(account)}
		e.oracleIdx[account] = len(e.oracles)
		e.oracles = append(e.oracles, o)
		e.treasury.OracleFees = e.treasury.OracleFees.Add(fee)
		t.emit(Event{Type: EventOracleRegistered, Account: account, Amount: amountRef(fee)})
		out = o
		return nil
	})
	return out, err
}

// GetOracle returns the registration of account.
func (e *Engine) GetOracle(account model.Account) (model.Oracle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	i, ok := e.oracleIdx[account]
	if !ok {
		return model.Oracle{}, fmt.Errorf("%w: oracle %s", ErrNotFound, account)
	}
	return e.oracles[i], nil
}

// RequestStatus opens a status request for a flight and emits
// EventOracleRequested with the index oracles must answer on.  While a
// request for the flight is open a new call is merged into it: the open
// index is returned and the event is emitted again.  An open request that
// has outlived RequestTTL, or that no status code can still carry to a
// quorum, is superseded by a fresh request on a newly drawn index.
func (e *Engine) RequestStatus(ctx context.Context, requester model.Account, key model.FlightKey) (model.StatusRequest, error) {
	var out model.StatusRequest
	err := e.commit(ctx, true, func(t *txn) error {
		fi, ok := e.flightIdx[key]
		if !ok {
			return fmt.Errorf("%w: flight %s", ErrNotFound, key)
		}
		if e.flights[fi].Status != model.StatusUnknown {
			return fmt.Errorf("%w: %s is %s", ErrFlightClosed, key, e.flights[fi].Status)
		}
		var previous *requestSlot
		if ri, open := e.openRequest[key]; open {
			r := &e.requests[ri]
			if !e.stuck(r, t.now) {
				t.emit(Event{Type: EventOracleRequested, Account: requester, Flight: flightRef(key), Index: indexRef(r.Index)})
				out = r.view()
				return nil
			}
			r.Superseded = true
			delete(e.openRequest, key)
			previous = r
		}

		index := e.drawIndex(requester)
		for i := 0; previous != nil && index == previous.Index && i < maxIndexDraws; i++ {
			index = e.drawIndex(requester)
		}
		if previous != nil {
			e.log.WithFields(logrus.Fields{
				"flight":    key.String(),
				"old_index": previous.Index,
				"index":     index,
			}).Info("surety: stuck status request superseded")
		}
		ri := len(e.requests)
		e.requests = append(e.requests, requestSlot{
			StatusRequest: model.StatusRequest{
				Flight:    key,
				Index:     index,
				Requester: requester,
				OpenedAt:  t.now,
				Responses: map[model.StatusCode][]model.Account{},
			},
			responded: map[model.Account]bool{},
		})
		e.requestIdx[requestKey{flight: key, index: index}] = ri
		e.openRequest[key] = ri
		t.emit(Event{Type: EventOracleRequested, Account: requester, Flight: flightRef(key), Index: indexRef(index)})
		out = e.requests[ri].view()
		return nil
	})
	return out, err
}

// stuck reports whether the open request r should be replaced.  Without
// any registered oracle there is nothing a new index would change.
func (e *Engine) stuck(r *requestSlot, now time.Time) bool {
	if e.cfg.RequestTTL > 0 && now.Sub(r.OpenedAt) >= e.cfg.RequestTTL {
		return true
	}
	if len(e.oracles) == 0 {
		return false
	}
	pending := 0
	for _, o := range e.oracles {
		if o.Has(r.Index) && !r.responded[o.Account] {
			pending++
		}
	}
	best := 0
	for code, who := range r.Responses {
		if code.Terminal() && len(who) > best {
			best = len(who)
		}
	}
	return best+pending < e.cfg.OracleQuorum
}

// SubmitResponse records an oracle's status report.  The first status code
// that collects OracleQuorum agreeing reports finalizes the request, writes
// the flight status and, for StatusLateAirline, credits every insuree of
// the flight.  Reports on a finalized request are recorded but change
// nothing else.  Unknown is recorded but never finalizes.
func (e *Engine) SubmitResponse(ctx context.Context, oracle model.Account, index uint8, key model.FlightKey, code model.StatusCode) (Report, error) {
	var out Report
	err := e.commit(ctx, true, func(t *txn) error {
		if !code.Valid() {
			return fmt.Errorf("%w: status code %d", ErrInvalidInput, code)
		}
		oi, ok := e.oracleIdx[oracle]
		if !ok {
			return fmt.Errorf("%w: %s is not a registered oracle", ErrUnauthorized, oracle)
		}
		if !e.oracles[oi].Has(index) {
			return fmt.Errorf("%w: index %d is not assigned to oracle %s", ErrUnauthorized, index, oracle)
		}
		if _, ok := e.flightIdx[key]; !ok {
			return fmt.Errorf("%w: flight %s", ErrNotFound, key)
		}
		ri, ok := e.requestIdx[requestKey{flight: key, index: index}]
		if !ok {
			return fmt.Errorf("%w: no status request for %s at index %d", ErrUnauthorized, key, index)
		}
		r := &e.requests[ri]
		if r.Superseded {
			return fmt.Errorf("%w: status request for %s at index %d was superseded", ErrUnauthorized, key, index)
		}
		if r.responded[oracle] {
			out = Report{Finalized: r.Finalized, Status: r.Status, Agreeing: len(r.Responses[code])}
			return nil
		}
		r.responded[oracle] = true
		r.Responses[code] = append(r.Responses[code], oracle)
		t.emit(Event{Type: EventOracleReported, Account: oracle, Flight: flightRef(key), Index: indexRef(index), Status: code})

		out = Report{Counted: true, Agreeing: len(r.Responses[code])}
		if !r.Finalized && code.Terminal() && len(r.Responses[code]) >= e.cfg.OracleQuorum {
			e.finalizeLocked(t, r, code)
		}
		out.Finalized, out.Status = r.Finalized, r.Status
		return nil
	})
	return out, err
}

// finalizeLocked is the one place a flight status is written.
func (e *Engine) finalizeLocked(t *txn, r *requestSlot, code model.StatusCode) {
	r.Finalized = true
	r.Status = code
	delete(e.openRequest, r.Flight)

	f := &e.flights[e.flightIdx[r.Flight]]
	if f.Status != model.StatusUnknown {
		return
	}
	f.Status = code
	t.emit(Event{Type: EventFlightFinalized, Account: r.Flight.Airline, Flight: flightRef(r.Flight), Index: indexRef(r.Index), Status: code})
	e.log.WithFields(logrus.Fields{
		"flight": r.Flight.String(),
		"status": code.String(),
		"index":  r.Index,
	}).Info("surety: flight status finalized")

	if code == model.StatusLateAirline {
		e.creditLocked(t, r.Flight)
	}
}

// GetStatusRequest returns the request for key at index.
func (e *Engine) GetStatusRequest(key model.FlightKey, index uint8) (model.StatusRequest, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ri, ok := e.requestIdx[requestKey{flight: key, index: index}]
	if !ok {
		return model.StatusRequest{}, fmt.Errorf("%w: no status request for %s at index %d", ErrNotFound, key, index)
	}
	return e.requests[ri].view(), nil
}

func (s *requestSlot) view() model.StatusRequest {
	r := s.StatusRequest
	r.Responses = make(map[model.StatusCode][]model.Account, len(s.Responses))
	for code, oracles := range s.Responses {
		r.Responses[code] = append([]model.Account{}, oracles...)
	}
	return r
}
