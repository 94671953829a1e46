package model

import "time"

// Oracle is a registered status witness.  Indexes are assigned once at
// registration and never change.
type Oracle struct {
	Account Account  `json:"account"`
	Indexes [3]uint8 `json:"indexes"`
}

// Has reports whether index is one of the oracle's assigned indexes.
func (o Oracle) Has(index uint8) bool {
	for _, i := range o.Indexes {
		if i == index {
			return true
		}
	}
	return false
}

// StatusRequest tracks one status fetch for a flight at a given index.
// Responses maps each reported code to the oracles that reported it, in
// arrival order.  A superseded request was replaced by a newer one for the
// same flight and takes no more responses.
type StatusRequest struct {
	Flight     FlightKey                `json:"flight"`
	Index      uint8                    `json:"index"`
	Requester  Account                  `json:"requester"`
	OpenedAt   time.Time                `json:"opened_at"`
	Responses  map[StatusCode][]Account `json:"responses"`
	Finalized  bool                     `json:"finalized"`
	Superseded bool                     `json:"superseded,omitempty"`
	Status     StatusCode               `json:"status_code"`
}
