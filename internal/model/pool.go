package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/internal/vesting"
)

// PoolConfig is the owner-supplied configuration of a fundraising pool.
// Amounts are in 18-decimal base units; TokenPrice is the fundraising token
// paid per whole reward token.
type PoolConfig struct {
	RewardToken           common.Address `json:"reward_token"`
	FundRaisingToken      common.Address `json:"fund_raising_token"`
	SubscriptionStartTime uint64         `json:"subscription_start_time"`
	SubscriptionEndTime   uint64         `json:"subscription_end_time"`
	FundingEndTime        uint64         `json:"funding_end_time"`
	FundRaisingTarget     *big.Int       `json:"fund_raising_target"`
	TokenPrice            *big.Int       `json:"token_price"`
	MinAllocation         *big.Int       `json:"min_allocation"`
	MaxAllocation         *big.Int       `json:"max_allocation"`
	// BaseAllocation is the unit tier multipliers scale; MinAllocation when unset.
	BaseAllocation *big.Int `json:"base_allocation,omitempty"`
}

// Vesting is the reward release configured once funding has ended.
type Vesting struct {
	RewardAmount *big.Int         `json:"reward_amount"`
	Schedule     vesting.Schedule `json:"schedule"`
}

// Pool is a fundraising pool and its running totals.
type Pool struct {
	ID uint64 `json:"id"`
	PoolConfig
	TotalRaised        *big.Int `json:"total_raised"`
	TotalRewardClaimed *big.Int `json:"total_reward_claimed"`
	Vesting            *Vesting `json:"vesting,omitempty"`
	FundsClaimed       bool     `json:"funds_claimed"`
}

// Clone returns a deep copy.
func (p Pool) Clone() Pool {
	out := p
	out.FundRaisingTarget = cloneInt(p.FundRaisingTarget)
	out.TokenPrice = cloneInt(p.TokenPrice)
	out.MinAllocation = cloneInt(p.MinAllocation)
	out.MaxAllocation = cloneInt(p.MaxAllocation)
	out.BaseAllocation = cloneInt(p.BaseAllocation)
	out.TotalRaised = cloneInt(p.TotalRaised)
	out.TotalRewardClaimed = cloneInt(p.TotalRewardClaimed)
	if p.Vesting != nil {
		out.Vesting = &Vesting{
			RewardAmount: cloneInt(p.Vesting.RewardAmount),
			Schedule:     p.Vesting.Schedule,
		}
	}
	return out
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
