package surety

import (
	"encoding/binary"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/Qiyd81/flightsurety-2/internal/model"
)

// Indexer draws pseudo-random oracle indexes.  Draw is only called while
// the engine holds its lock.
type Indexer interface {
	Draw(account model.Account) uint8
}

// keccakIndexer hashes seed, a per-draw nonce and the account, then reduces
// the digest into the index space.
type keccakIndexer struct {
	seed  []byte
	nonce uint64
	space uint8
}

// NewKeccakIndexer returns an Indexer over [0, space).  A nil seed is
// replaced by the current timestamp.
func NewKeccakIndexer(seed []byte, space uint8) Indexer {
	if seed == nil {
		seed = binary.BigEndian.AppendUint64(nil, uint64(time.Now().UnixNano()))
	}
	return &keccakIndexer{seed: seed, space: space}
}

func (k *keccakIndexer) Draw(account model.Account) uint8 {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], k.nonce)
	k.nonce++

	h := sha3.NewLegacyKeccak256()
	h.Write(k.seed)
	h.Write(n[:])
	h.Write([]byte(account))
	sum := h.Sum(nil)
	return uint8(binary.BigEndian.Uint64(sum[len(sum)-8:]) % uint64(k.space))
}

const maxIndexDraws = 256

// assignIndexes draws three distinct indexes for an oracle.  If the indexer
// keeps repeating itself the lowest unused indexes fill the remaining slots.
func (e *Engine) assignIndexes(account model.Account) [3]uint8 {
	var out [3]uint8
	used := make(map[uint8]bool, 3)
	for slot := 0; slot < 3; slot++ {
		picked := false
		for i := 0; i < maxIndexDraws; i++ {
			idx := e.drawIndex(account)
			if !used[idx] {
				out[slot], used[idx], picked = idx, true, true
				break
			}
		}
		if !picked {
			for idx := uint8(0); idx < e.cfg.OracleIndexSpace; idx++ {
				if !used[idx] {
					out[slot], used[idx] = idx, true
					break
				}
			}
		}
	}
	return out
}

func (e *Engine) drawIndex(account model.Account) uint8 {
	return e.indexer.Draw(account) % e.cfg.OracleIndexSpace
}
