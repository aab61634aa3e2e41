package launchpad

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"launchpad/internal/allocation"
	"launchpad/internal/merkle"
	"launchpad/internal/model"
)

// Subscribe registers caller for the pool using the KYC proof at proofIndex.
// The maximum allocation is fixed here from the caller's staking score.
func (r *Registry) Subscribe(ctx context.Context, caller common.Address, poolID, proofIndex uint64, proof []common.Hash) error {
	if err := r.subscribe(ctx, caller, poolID, proofIndex, proof, nil); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

// SubscribeWithUtilityNFT subscribes like Subscribe and additionally draws
// guaranteed allocation from the caller's utility NFT.
func (r *Registry) SubscribeWithUtilityNFT(ctx context.Context, caller common.Address, poolID, nftID, proofIndex uint64, proof []common.Hash) error {
	if err := r.subscribe(ctx, caller, poolID, proofIndex, proof, &nftID); err != nil {
		return fmt.Errorf("subscribeWithUtilityNFT: %w", err)
	}
	return nil
}

func (r *Registry) subscribe(ctx context.Context, caller common.Address, poolID, proofIndex uint64, proof []common.Hash, nftID *uint64) error {
	ps, err := r.poolState(poolID)
	if err != nil {
		return err
	}
	now := r.now()

	r.mu.RLock()
	root, scorer := r.kycRoot, r.scorer
	r.mu.RUnlock()

	ps.mu.Lock()
	defer ps.mu.Unlock()
	pool := &ps.pool

	if now < pool.SubscriptionStartTime {
		return ErrNotStarted
	}
	if now >= pool.SubscriptionEndTime {
		return ErrSubscriptionClosed
	}
	if !merkle.Verify(root, proofIndex, proof, caller) {
		return ErrInvalidProof
	}
	if sub, ok := ps.subs[caller]; ok && sub.Subscribed {
		return ErrAlreadySubscribed
	}

	var score uint64
	if scorer != nil {
		score = scorer.ScoreOf(caller, now)
	}

	var granted *big.Int
	if nftID != nil {
		granted, err = r.nftGrant(ctx, caller, *nftID, pool.MaxAllocation)
		if err != nil {
			return err
		}
	}

	maxAlloc, err := allocation.Compute(allocation.Input{
		Multiplier: r.tiers.Multiplier(score),
		NFTGranted: granted,
		Base:       pool.BaseAllocation,
		Min:        pool.MinAllocation,
		Max:        pool.MaxAllocation,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if maxAlloc.Sign() == 0 {
		return fmt.Errorf("%w: score %d", ErrNoAllocation, score)
	}

	sub := &model.Subscription{
		PoolID:            poolID,
		Account:           caller,
		Subscribed:        true,
		MaximumAllocation: maxAlloc,
		AmountFunded:      big.NewInt(0),
		RewardClaimed:     big.NewInt(0),
	}
	if nftID != nil {
		id := *nftID
		sub.NFTID = &id
	}
	ps.subs[caller] = sub

	if granted != nil {
		if err := r.nft.ConsumeAllocation(ctx, *nftID, granted); err != nil {
			delete(ps.subs, caller)
			// Another pool may have drawn on the same NFT since it was read.
			if left, readErr := r.nft.GetAvailableAllocation(ctx, *nftID); readErr == nil && left.Cmp(granted) < 0 {
				return fmt.Errorf("%w: %w", ErrNFTAllocationExhausted, err)
			}
			return fmt.Errorf("consume nft allocation: %w", err)
		}
	}

	fields := []zap.Field{
		zap.Uint64("pool_id", poolID),
		zap.String("account", caller.Hex()),
		zap.Uint64("score", score),
		zap.String("maximum_allocation", maxAlloc.String()),
	}
	if nftID != nil {
		fields = append(fields, zap.Uint64("nft_id", *nftID), zap.String("nft_granted", granted.String()))
	}
	r.logger.Debug("subscribed", fields...)

	r.emit(now, pendingEvent{
		name:    EventSubscribed,
		poolID:  &poolID,
		account: caller,
		amount:  maxAlloc,
		indexed: []common.Hash{poolTopic(poolID), addressTopic(caller)},
		data:    []interface{}{maxAlloc},
	})
	return nil
}

// nftGrant returns min(guaranteed, available, poolMax) for an NFT the caller owns.
func (r *Registry) nftGrant(ctx context.Context, caller common.Address, nftID uint64, poolMax *big.Int) (*big.Int, error) {
	if r.nft == nil {
		return nil, fmt.Errorf("%w: no utility nft configured", ErrInvalidConfig)
	}
	owner, err := r.nft.OwnerOf(ctx, nftID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotNFTOwner, err)
	}
	if owner != caller {
		return nil, ErrNotNFTOwner
	}
	guaranteed, err := r.nft.GuaranteedAllocationOf(ctx, nftID)
	if err != nil {
		return nil, fmt.Errorf("read guaranteed allocation: %w", err)
	}
	available, err := r.nft.GetAvailableAllocation(ctx, nftID)
	if err != nil {
		return nil, fmt.Errorf("read available allocation: %w", err)
	}

	granted := minInt(guaranteed, available)
	granted = minInt(granted, poolMax)
	if granted.Sign() <= 0 {
		return nil, ErrNFTAllocationExhausted
	}
	return granted, nil
}

func minInt(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}
