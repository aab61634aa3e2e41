package launchpad

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/internal/model"
	"launchpad/internal/tier"
)

// Snapshot is the serializable state of a Registry. The event journal is not
// included; NextSeq keeps sequence numbers monotonic across restores.
type Snapshot struct {
	Owner         common.Address       `json:"owner"`
	Escrow        common.Address       `json:"escrow"`
	KYCRoot       common.Hash          `json:"kyc_root"`
	Tiers         []tier.Tier          `json:"tiers"`
	Pools         []model.Pool         `json:"pools"`
	Subscriptions []model.Subscription `json:"subscriptions"`
	NextSeq       uint64               `json:"next_seq"`
}

// Snapshot copies the registry state for persistence.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	snap := Snapshot{
		Owner:   r.owner,
		Escrow:  r.escrow,
		KYCRoot: r.kycRoot,
		Tiers:   r.tiers.Tiers(),
		Pools:   make([]model.Pool, 0, len(r.pools)),
	}
	pools := append([]*poolState(nil), r.pools...)
	r.mu.RUnlock()

	for _, ps := range pools {
		ps.mu.Lock()
		snap.Pools = append(snap.Pools, ps.pool.Clone())
		subs := make([]model.Subscription, 0, len(ps.subs))
		for _, sub := range ps.subs {
			subs = append(subs, sub.Clone())
		}
		ps.mu.Unlock()

		sort.Slice(subs, func(i, j int) bool {
			return subs[i].Account.Hex() < subs[j].Account.Hex()
		})
		snap.Subscriptions = append(snap.Subscriptions, subs...)
	}

	r.eventsMu.Lock()
	snap.NextSeq = r.nextSeq
	r.eventsMu.Unlock()
	return snap
}

// Restore rebuilds a Registry from a snapshot and wires it to deps.
func Restore(snap Snapshot, deps Deps) (*Registry, error) {
	scores := make([]uint64, len(snap.Tiers))
	multipliers := make([]uint64, len(snap.Tiers))
	for i, t := range snap.Tiers {
		scores[i], multipliers[i] = t.MinimumScore, t.Multiplier
	}
	tiers, err := tier.NewTable(scores, multipliers)
	if err != nil {
		return nil, fmt.Errorf("restore tiers: %w", err)
	}

	r, err := NewRegistry(Config{
		Owner:   snap.Owner,
		Escrow:  snap.Escrow,
		Tiers:   tiers,
		KYCRoot: snap.KYCRoot,
	}, deps)
	if err != nil {
		return nil, err
	}

	for i, pool := range snap.Pools {
		if pool.ID != uint64(i) {
			return nil, fmt.Errorf("restore pools: pool at position %d has id %d", i, pool.ID)
		}
		pool = pool.Clone()
		if pool.TotalRaised == nil {
			pool.TotalRaised = zero()
		}
		if pool.TotalRewardClaimed == nil {
			pool.TotalRewardClaimed = zero()
		}
		r.pools = append(r.pools, &poolState{
			pool: pool,
			subs: make(map[common.Address]*model.Subscription),
		})
	}
	for _, sub := range snap.Subscriptions {
		if sub.PoolID >= uint64(len(r.pools)) {
			return nil, fmt.Errorf("restore subscriptions: %w: %d", ErrPoolNotFound, sub.PoolID)
		}
		sub = sub.Clone()
		if sub.MaximumAllocation == nil {
			sub.MaximumAllocation = zero()
		}
		if sub.AmountFunded == nil {
			sub.AmountFunded = zero()
		}
		if sub.RewardClaimed == nil {
			sub.RewardClaimed = zero()
		}
		r.pools[sub.PoolID].subs[sub.Account] = &sub
	}
	r.nextSeq = snap.NextSeq
	return r, nil
}
