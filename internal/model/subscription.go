package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Subscription is one participant's standing in one pool.
type Subscription struct {
	PoolID            uint64         `json:"pool_id"`
	Account           common.Address `json:"account"`
	Subscribed        bool           `json:"subscribed"`
	MaximumAllocation *big.Int       `json:"maximum_allocation"`
	AmountFunded      *big.Int       `json:"amount_funded"`
	// RewardClaimed accumulates every vested delta paid out.
	RewardClaimed *big.Int `json:"reward_claimed"`
	NFTID         *uint64  `json:"nft_id,omitempty"`
}

// Clone returns a deep copy.
func (s Subscription) Clone() Subscription {
	out := s
	out.MaximumAllocation = cloneInt(s.MaximumAllocation)
	out.AmountFunded = cloneInt(s.AmountFunded)
	out.RewardClaimed = cloneInt(s.RewardClaimed)
	if s.NFTID != nil {
		id := *s.NFTID
		out.NFTID = &id
	}
	return out
}
