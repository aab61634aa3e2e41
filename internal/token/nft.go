package token

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrUnknownNFT        = errors.New("nonexistent token")
	ErrAllocationOverrun = errors.New("allocation exceeds available")
)

// NFTRecord is the per-token state of a utility NFT.
type NFTRecord struct {
	Owner      common.Address `json:"owner"`
	Guaranteed *big.Int       `json:"guaranteed"`
	Available  *big.Int       `json:"available"`
}

// UtilityNFT grants a guaranteed fundraising allocation that is consumed as
// pools use it. Token ids are sequential from zero.
type UtilityNFT struct {
	mu     sync.Mutex
	tokens []NFTRecord
}

func NewUtilityNFT() *UtilityNFT {
	return &UtilityNFT{}
}

// Mint creates a token owned by to carrying guaranteed allocation.
func (n *UtilityNFT) Mint(to common.Address, guaranteed *big.Int) (uint64, error) {
	if guaranteed == nil || guaranteed.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	n.tokens = append(n.tokens, NFTRecord{
		Owner:      to,
		Guaranteed: new(big.Int).Set(guaranteed),
		Available:  new(big.Int).Set(guaranteed),
	})
	return uint64(len(n.tokens) - 1), nil
}

func (n *UtilityNFT) record(id uint64) (*NFTRecord, error) {
	if id >= uint64(len(n.tokens)) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownNFT, id)
	}
	return &n.tokens[id], nil
}

func (n *UtilityNFT) OwnerOf(_ context.Context, id uint64) (common.Address, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	rec, err := n.record(id)
	if err != nil {
		return common.Address{}, err
	}
	return rec.Owner, nil
}

func (n *UtilityNFT) GuaranteedAllocationOf(_ context.Context, id uint64) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	rec, err := n.record(id)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(rec.Guaranteed), nil
}

func (n *UtilityNFT) GetAvailableAllocation(_ context.Context, id uint64) (*big.Int, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	rec, err := n.record(id)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(rec.Available), nil
}

// ConsumeAllocation decrements the available allocation of id.
func (n *UtilityNFT) ConsumeAllocation(_ context.Context, id uint64, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	rec, err := n.record(id)
	if err != nil {
		return err
	}
	if rec.Available.Cmp(amount) < 0 {
		return fmt.Errorf("%w: available %s, requested %s", ErrAllocationOverrun, rec.Available, amount)
	}
	rec.Available = new(big.Int).Sub(rec.Available, amount)
	return nil
}

// Records returns a copy of every token, indexed by id.
func (n *UtilityNFT) Records() []NFTRecord {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]NFTRecord, len(n.tokens))
	for i, rec := range n.tokens {
		out[i] = NFTRecord{
			Owner:      rec.Owner,
			Guaranteed: new(big.Int).Set(rec.Guaranteed),
			Available:  new(big.Int).Set(rec.Available),
		}
	}
	return out
}

// RestoreNFT rebuilds a UtilityNFT from Records output.
func RestoreNFT(records []NFTRecord) *UtilityNFT {
	n := NewUtilityNFT()
	for _, rec := range records {
		n.tokens = append(n.tokens, NFTRecord{
			Owner:      rec.Owner,
			Guaranteed: copyOrZero(rec.Guaranteed),
			Available:  copyOrZero(rec.Available),
		})
	}
	return n
}
