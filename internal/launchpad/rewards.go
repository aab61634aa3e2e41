package launchpad

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"launchpad/internal/model"
	"launchpad/internal/vesting"
)

// requiredReward is the reward token amount that covers raised at price.
func requiredReward(raised, price *big.Int) *big.Int {
	out := new(big.Int).Mul(raised, wad)
	return out.Quo(out, price)
}

// GetRequiredRewardAmountForAmountRaised returns totalRaised*1e18/tokenPrice.
func (r *Registry) GetRequiredRewardAmountForAmountRaised(poolID uint64) (*big.Int, error) {
	ps, err := r.poolState(poolID)
	if err != nil {
		return nil, err
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return requiredReward(ps.pool.TotalRaised, ps.pool.TokenPrice), nil
}

// SetupVestingRewards deposits the reward tokens owed to subscribers and fixes
// the schedule they vest on. It can run once, after funding has ended.
func (r *Registry) SetupVestingRewards(ctx context.Context, caller common.Address, poolID uint64, rewardAmount *big.Int, start, cliff, end uint64) error {
	if err := r.setupVestingRewards(ctx, caller, poolID, rewardAmount, vesting.Schedule{Start: start, Cliff: cliff, End: end}); err != nil {
		return fmt.Errorf("setupVestingRewards: %w", err)
	}
	return nil
}

func (r *Registry) setupVestingRewards(ctx context.Context, caller common.Address, poolID uint64, rewardAmount *big.Int, schedule vesting.Schedule) error {
	if err := r.onlyOwner(caller); err != nil {
		return err
	}
	ps, err := r.poolState(poolID)
	if err != nil {
		return err
	}
	now := r.now()

	ps.mu.Lock()
	defer ps.mu.Unlock()
	pool := &ps.pool

	if now < pool.FundingEndTime {
		return ErrStillFunding
	}
	if pool.Vesting != nil {
		return ErrAlreadyConfigured
	}
	if err := schedule.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if schedule.Start <= pool.FundingEndTime {
		return fmt.Errorf("%w: reward start must follow funding end", ErrInvalidConfig)
	}
	required := requiredReward(pool.TotalRaised, pool.TokenPrice)
	if rewardAmount == nil || rewardAmount.Cmp(required) != 0 {
		return fmt.Errorf("%w: want %s", ErrWrongAmount, required)
	}

	pool.Vesting = &model.Vesting{RewardAmount: required, Schedule: schedule}

	if required.Sign() > 0 {
		if err := r.tokens.TransferFrom(ctx, pool.RewardToken, r.escrow, caller, r.escrow, required); err != nil {
			pool.Vesting = nil
			return fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
	}

	r.logger.Info("vesting configured",
		zap.Uint64("pool_id", poolID),
		zap.String("reward_amount", required.String()),
		zap.Uint64("start", schedule.Start),
		zap.Uint64("cliff", schedule.Cliff),
		zap.Uint64("end", schedule.End),
	)
	r.emit(now, pendingEvent{
		name:    EventVestingConfigured,
		poolID:  &poolID,
		amount:  required,
		indexed: []common.Hash{poolTopic(poolID)},
		data: []interface{}{
			required,
			new(big.Int).SetUint64(schedule.Start),
			new(big.Int).SetUint64(schedule.Cliff),
			new(big.Int).SetUint64(schedule.End),
		},
	})
	return nil
}

// claimable is vested(now) minus what the subscription has already received.
func claimable(pool *model.Pool, sub *model.Subscription, now uint64) *big.Int {
	grant := requiredReward(sub.AmountFunded, pool.TokenPrice)
	vested := pool.Vesting.Schedule.VestedAmount(grant, now)
	delta := vested.Sub(vested, sub.RewardClaimed)
	if delta.Sign() < 0 {
		return big.NewInt(0)
	}
	return delta
}

// ClaimReward pays caller the reward vested since their last claim. A claim
// with nothing newly vested returns zero and moves no tokens.
func (r *Registry) ClaimReward(ctx context.Context, caller common.Address, poolID uint64) (*big.Int, error) {
	amount, err := r.claimReward(ctx, caller, poolID)
	if err != nil {
		return nil, fmt.Errorf("claimReward: %w", err)
	}
	return amount, nil
}

func (r *Registry) claimReward(ctx context.Context, caller common.Address, poolID uint64) (*big.Int, error) {
	ps, err := r.poolState(poolID)
	if err != nil {
		return nil, err
	}
	now := r.now()

	ps.mu.Lock()
	defer ps.mu.Unlock()
	pool := &ps.pool

	if pool.Vesting == nil {
		return nil, ErrVestingNotConfigured
	}
	if now < pool.Vesting.Schedule.Cliff {
		return nil, ErrNotPastCliff
	}
	sub, ok := ps.subs[caller]
	if !ok || sub.AmountFunded.Sign() == 0 {
		return nil, ErrNotFunded
	}

	delta := claimable(pool, sub, now)
	if delta.Sign() == 0 {
		return delta, nil
	}

	prevClaimed, prevTotal := sub.RewardClaimed, pool.TotalRewardClaimed
	sub.RewardClaimed = new(big.Int).Add(prevClaimed, delta)
	pool.TotalRewardClaimed = new(big.Int).Add(prevTotal, delta)

	if err := r.tokens.Transfer(ctx, pool.RewardToken, r.escrow, caller, delta); err != nil {
		sub.RewardClaimed, pool.TotalRewardClaimed = prevClaimed, prevTotal
		return nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	r.logger.Debug("reward claimed",
		zap.Uint64("pool_id", poolID),
		zap.String("account", caller.Hex()),
		zap.String("amount", delta.String()),
		zap.String("claimed_total", sub.RewardClaimed.String()),
	)
	r.emit(now, pendingEvent{
		name:    EventRewardClaimed,
		poolID:  &poolID,
		account: caller,
		amount:  delta,
		indexed: []common.Hash{poolTopic(poolID), addressTopic(caller)},
		data:    []interface{}{delta},
	})
	return new(big.Int).Set(delta), nil
}

// PendingReward reports what ClaimReward would pay account right now.
func (r *Registry) PendingReward(poolID uint64, account common.Address) (*big.Int, error) {
	ps, err := r.poolState(poolID)
	if err != nil {
		return nil, err
	}
	now := r.now()

	ps.mu.Lock()
	defer ps.mu.Unlock()
	pool := &ps.pool
	sub, ok := ps.subs[account]
	if pool.Vesting == nil || !ok || sub.AmountFunded.Sign() == 0 || now < pool.Vesting.Schedule.Cliff {
		return big.NewInt(0), nil
	}
	return claimable(pool, sub, now), nil
}

// ClaimFundRaising sends everything raised in the pool to the owner.
func (r *Registry) ClaimFundRaising(ctx context.Context, caller common.Address, poolID uint64) (*big.Int, error) {
	amount, err := r.claimFundRaising(ctx, caller, poolID)
	if err != nil {
		return nil, fmt.Errorf("claimFundRaising: %w", err)
	}
	return amount, nil
}

func (r *Registry) claimFundRaising(ctx context.Context, caller common.Address, poolID uint64) (*big.Int, error) {
	if err := r.onlyOwner(caller); err != nil {
		return nil, err
	}
	ps, err := r.poolState(poolID)
	if err != nil {
		return nil, err
	}
	now := r.now()

	ps.mu.Lock()
	defer ps.mu.Unlock()
	pool := &ps.pool

	if now < pool.FundingEndTime {
		return nil, ErrStillFunding
	}
	if pool.FundsClaimed {
		return nil, ErrAlreadyClaimed
	}

	amount := new(big.Int).Set(pool.TotalRaised)
	pool.FundsClaimed = true
	if amount.Sign() > 0 {
		if err := r.tokens.Transfer(ctx, pool.FundRaisingToken, r.escrow, r.owner, amount); err != nil {
			pool.FundsClaimed = false
			return nil, fmt.Errorf("%w: %w", ErrTransferFailed, err)
		}
	}

	r.logger.Info("fund raising claimed",
		zap.Uint64("pool_id", poolID),
		zap.String("amount", amount.String()),
	)
	r.emit(now, pendingEvent{
		name:    EventFundRaisingClaimed,
		poolID:  &poolID,
		account: r.owner,
		amount:  amount,
		indexed: []common.Hash{poolTopic(poolID), addressTopic(r.owner)},
		data:    []interface{}{amount},
	})
	return amount, nil
}
