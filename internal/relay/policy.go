package relay

import (
	"math/rand/v2"
	"sync"

	"github.com/Qiyd81/flightsurety-2/internal/model"
	"github.com/Qiyd81/flightsurety-2/internal/queue"
)

// StatusPolicy decides the status the fleet reports for one request.  It
// is consulted once per request and every oracle holding the index
// reports the same code.
type StatusPolicy interface {
	Status(req queue.OracleRequestedEvent) model.StatusCode
}

// RandomStatus reports a uniformly drawn status code, Unknown included.
type RandomStatus struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomStatus(seed uint64) *RandomStatus {
	return &RandomStatus{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *RandomStatus) Status(queue.OracleRequestedEvent) model.StatusCode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return model.StatusCodes[p.rng.IntN(len(model.StatusCodes))]
}

// FixedStatus always reports the same code.
type FixedStatus model.StatusCode

func (f FixedStatus) Status(queue.OracleRequestedEvent) model.StatusCode {
	return model.StatusCode(f)
}
