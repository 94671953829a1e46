package surety

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Qiyd81/flightsurety-2/internal/model"
)

// Snapshot is the complete engine state after the transition numbered Seq.
type Snapshot struct {
	Seq       uint64                            `json:"seq"`
	Enabled   bool                              `json:"enabled"`
	Airlines  []model.Airline                   `json:"airlines"`
	Flights   []model.Flight                    `json:"flights"`
	Policies  []model.Policy                    `json:"policies"`
	Balances  map[model.Account]decimal.Decimal `json:"balances"`
	Withdrawn map[model.Account]decimal.Decimal `json:"withdrawn,omitempty"`
	Deficits  map[model.Account]decimal.Decimal `json:"deficits,omitempty"`
	Oracles   []model.Oracle                    `json:"oracles"`
	Requests  []model.StatusRequest             `json:"requests"`
	Treasury  Treasury                          `json:"treasury"`
}

// Snapshot returns a copy of the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	s := Snapshot{
		Seq:       e.seq,
		Enabled:   e.enabled,
		Airlines:  make([]model.Airline, 0, len(e.airlines)),
		Flights:   append([]model.Flight{}, e.flights...),
		Policies:  append([]model.Policy{}, e.policies...),
		Balances:  make(map[model.Account]decimal.Decimal, len(e.balances)),
		Withdrawn: make(map[model.Account]decimal.Decimal, len(e.withdrawn)),
		Deficits:  make(map[model.Account]decimal.Decimal, len(e.deficit)),
		Oracles:   append([]model.Oracle{}, e.oracles...),
		Requests:  make([]model.StatusRequest, 0, len(e.requests)),
		Treasury:  e.treasury,
	}
	for i := range e.airlines {
		s.Airlines = append(s.Airlines, e.airlines[i].view())
	}
	for acc, bal := range e.balances {
		s.Balances[acc] = bal
	}
	for acc, v := range e.withdrawn {
		s.Withdrawn[acc] = v
	}
	for acc, v := range e.deficit {
		s.Deficits[acc] = v
	}
	for i := range e.requests {
		s.Requests = append(s.Requests, e.requests[i].view())
	}
	return s
}

// restoreLocked rebuilds every table and index from s.
func (e *Engine) restoreLocked(s Snapshot) error {
	e.reset()
	e.seq = s.Seq
	e.enabled = s.Enabled
	e.treasury = s.Treasury

	for _, a := range s.Airlines {
		if _, dup := e.airlineIdx[a.Account]; dup {
			return fmt.Errorf("%w: snapshot holds airline %s twice", ErrInvalidInput, a.Account)
		}
		slot := airlineSlot{Airline: a, voted: make(map[model.Account]bool, len(a.Voters))}
		slot.Voters = append([]model.Account{}, a.Voters...)
		for _, v := range a.Voters {
			slot.voted[v] = true
		}
		e.airlineIdx[a.Account] = len(e.airlines)
		e.airlines = append(e.airlines, slot)
		if a.Registered {
			e.registeredCount++
		}
	}
	for _, f := range s.Flights {
		if _, dup := e.flightIdx[f.Key]; dup {
			return fmt.Errorf("%w: snapshot holds flight %s twice", ErrInvalidInput, f.Key)
		}
		e.flightIdx[f.Key] = len(e.flights)
		e.flightsByAirline[f.Key.Airline] = append(e.flightsByAirline[f.Key.Airline], len(e.flights))
		e.flights = append(e.flights, f)
	}
	for _, p := range s.Policies {
		pk := policyKey{flight: p.Flight, passenger: p.Passenger}
		if _, dup := e.policyIdx[pk]; dup {
			return fmt.Errorf("%w: snapshot holds policy %s/%s twice", ErrInvalidInput, p.Flight, p.Passenger)
		}
		i := len(e.policies)
		e.policyIdx[pk] = i
		e.policiesByFlight[p.Flight] = append(e.policiesByFlight[p.Flight], i)
		e.policiesByPassenger[p.Passenger] = append(e.policiesByPassenger[p.Passenger], i)
		e.policies = append(e.policies, p)
	}
	for acc, bal := range s.Balances {
		e.balances[acc] = bal
	}
	for acc, v := range s.Withdrawn {
		e.withdrawn[acc] = v
	}
	for acc, v := range s.Deficits {
		e.deficit[acc] = v
	}
	for _, o := range s.Oracles {
		e.oracleIdx[o.Account] = len(e.oracles)
		e.oracles = append(e.oracles, o)
	}
	for _, r := range s.Requests {
		slot := requestSlot{StatusRequest: r, responded: map[model.Account]bool{}}
		slot.Responses = make(map[model.StatusCode][]model.Account, len(r.Responses))
		for code, oracles := range r.Responses {
			slot.Responses[code] = append([]model.Account{}, oracles...)
			for _, o := range oracles {
				slot.responded[o] = true
			}
		}
		i := len(e.requests)
		e.requestIdx[requestKey{flight: r.Flight, index: r.Index}] = i
		if !r.Finalized && !r.Superseded {
			e.openRequest[r.Flight] = i
		}
		e.requests = append(e.requests, slot)
	}
	return nil
}
