package launchpad

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// FundSubscription moves amount of the fundraising token from caller into
// escrow, bounded by the caller's allocation and the pool target.
func (r *Registry) FundSubscription(ctx context.Context, caller common.Address, poolID uint64, amount *big.Int) error {
	if err := r.fundSubscription(ctx, caller, poolID, amount); err != nil {
		return fmt.Errorf("fundSubscription: %w", err)
	}
	return nil
}

func (r *Registry) fundSubscription(ctx context.Context, caller common.Address, poolID uint64, amount *big.Int) error {
	ps, err := r.poolState(poolID)
	if err != nil {
		return err
	}
	now := r.now()

	ps.mu.Lock()
	defer ps.mu.Unlock()
	pool := &ps.pool

	sub, ok := ps.subs[caller]
	if !ok || !sub.Subscribed {
		return ErrNotSubscribed
	}
	if now < pool.SubscriptionStartTime {
		return ErrNotStarted
	}
	if now >= pool.FundingEndTime {
		return ErrFundingClosed
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	funded := new(big.Int).Add(sub.AmountFunded, amount)
	if funded.Cmp(sub.MaximumAllocation) > 0 {
		return fmt.Errorf("%w: funded %s of %s", ErrTooMuch, funded, sub.MaximumAllocation)
	}
	raised := new(big.Int).Add(pool.TotalRaised, amount)
	if raised.Cmp(pool.FundRaisingTarget) > 0 {
		return fmt.Errorf("%w: raised %s of %s", ErrCapExceeded, raised, pool.FundRaisingTarget)
	}

	prevFunded, prevRaised := sub.AmountFunded, pool.TotalRaised
	sub.AmountFunded, pool.TotalRaised = funded, raised

	if err := r.tokens.TransferFrom(ctx, pool.FundRaisingToken, r.escrow, caller, r.escrow, amount); err != nil {
		sub.AmountFunded, pool.TotalRaised = prevFunded, prevRaised
		return fmt.Errorf("%w: %w", ErrTransferFailed, err)
	}

	r.logger.Debug("funded",
		zap.Uint64("pool_id", poolID),
		zap.String("account", caller.Hex()),
		zap.String("amount", amount.String()),
		zap.String("total_raised", raised.String()),
	)
	r.emit(now, pendingEvent{
		name:    EventFunded,
		poolID:  &poolID,
		account: caller,
		amount:  amount,
		indexed: []common.Hash{poolTopic(poolID), addressTopic(caller)},
		data:    []interface{}{amount},
	})
	return nil
}
