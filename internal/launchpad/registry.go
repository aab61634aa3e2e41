package launchpad

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"launchpad/internal/model"
	"launchpad/internal/tier"
)

var wad = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Config holds the deployment parameters of a Registry.
type Config struct {
	// Owner is the only account allowed to add pools, configure vesting and
	// claim raised funds.
	Owner common.Address
	// Escrow is the account holding deposits and reward tokens.
	Escrow  common.Address
	Tiers   *tier.Table
	KYCRoot common.Hash
}

type poolState struct {
	mu   sync.Mutex
	pool model.Pool
	subs map[common.Address]*model.Subscription
}

// Registry manages fundraising pools and their subscriptions.
type Registry struct {
	owner  common.Address
	escrow common.Address
	tiers  *tier.Table
	tokens TokenLedger
	nft    UtilityNFT
	clock  Clock
	sink   EventSink
	logger *zap.Logger

	mu      sync.RWMutex
	pools   []*poolState
	kycRoot common.Hash
	scorer  Scorer

	eventsMu sync.Mutex
	journal  []model.EventRecord
	nextSeq  uint64
}

// NewRegistry wires a registry to its collaborators. A nil Scorer scores
// every account 0 until SetStakingRewards is called.
func NewRegistry(cfg Config, deps Deps) (*Registry, error) {
	if cfg.Owner == (common.Address{}) {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidConfig)
	}
	if cfg.Escrow == (common.Address{}) {
		return nil, fmt.Errorf("%w: escrow is required", ErrInvalidConfig)
	}
	if cfg.Tiers == nil {
		return nil, fmt.Errorf("%w: score tiers are required", ErrInvalidConfig)
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("%w: token ledger is required", ErrInvalidConfig)
	}
	if deps.Clock == nil {
		deps.Clock = systemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Registry{
		owner:   cfg.Owner,
		escrow:  cfg.Escrow,
		tiers:   cfg.Tiers,
		tokens:  deps.Tokens,
		nft:     deps.NFT,
		clock:   deps.Clock,
		sink:    deps.Sink,
		logger:  deps.Logger,
		kycRoot: cfg.KYCRoot,
		scorer:  deps.Scorer,
	}, nil
}

// Owner returns the account allowed to manage pools.
func (r *Registry) Owner() common.Address { return r.owner }

// Escrow returns the account holding raised funds and rewards.
func (r *Registry) Escrow() common.Address { return r.escrow }

// KYCMerkleRoot returns the root subscriptions are verified against.
func (r *Registry) KYCMerkleRoot() common.Hash {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.kycRoot
}

func (r *Registry) now() uint64 {
	return uint64(r.clock.Now().Unix())
}

func (r *Registry) poolState(poolID uint64) (*poolState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if poolID >= uint64(len(r.pools)) {
		return nil, fmt.Errorf("%w: %d", ErrPoolNotFound, poolID)
	}
	return r.pools[poolID], nil
}

func (r *Registry) onlyOwner(caller common.Address) error {
	if caller != r.owner {
		return ErrUnauthorized
	}
	return nil
}

// AddPool registers a new pool and returns its id.
func (r *Registry) AddPool(_ context.Context, caller common.Address, cfg model.PoolConfig) (uint64, error) {
	if err := r.onlyOwner(caller); err != nil {
		return 0, fmt.Errorf("addPool: %w", err)
	}
	cfg, err := normalizePoolConfig(cfg)
	if err != nil {
		return 0, fmt.Errorf("addPool: %w", err)
	}
	now := r.now()

	r.mu.Lock()
	poolID := uint64(len(r.pools))
	r.pools = append(r.pools, &poolState{
		pool: model.Pool{
			ID:                 poolID,
			PoolConfig:         cfg,
			TotalRaised:        big.NewInt(0),
			TotalRewardClaimed: big.NewInt(0),
		},
		subs: make(map[common.Address]*model.Subscription),
	})
	r.mu.Unlock()

	r.logger.Info("pool created",
		zap.Uint64("pool_id", poolID),
		zap.String("reward_token", cfg.RewardToken.Hex()),
		zap.String("fund_raising_token", cfg.FundRaisingToken.Hex()),
		zap.String("target", cfg.FundRaisingTarget.String()),
	)
	r.emit(now, pendingEvent{
		name:    EventPoolCreated,
		poolID:  &poolID,
		indexed: []common.Hash{poolTopic(poolID)},
		data:    []interface{}{cfg.RewardToken, cfg.FundRaisingToken, cfg.FundRaisingTarget},
	})
	return poolID, nil
}

func normalizePoolConfig(cfg model.PoolConfig) (model.PoolConfig, error) {
	if cfg.RewardToken == (common.Address{}) || cfg.FundRaisingToken == (common.Address{}) {
		return cfg, fmt.Errorf("%w: token addresses are required", ErrInvalidConfig)
	}
	if !(cfg.SubscriptionStartTime < cfg.SubscriptionEndTime && cfg.SubscriptionEndTime < cfg.FundingEndTime) {
		return cfg, fmt.Errorf("%w: windows must satisfy start < subscription end < funding end", ErrInvalidConfig)
	}
	for _, f := range []struct {
		name  string
		value *big.Int
	}{
		{"fund raising target", cfg.FundRaisingTarget},
		{"token price", cfg.TokenPrice},
		{"min allocation", cfg.MinAllocation},
		{"max allocation", cfg.MaxAllocation},
	} {
		if f.value == nil || f.value.Sign() <= 0 {
			return cfg, fmt.Errorf("%w: %s must be positive", ErrInvalidConfig, f.name)
		}
	}
	if cfg.MinAllocation.Cmp(cfg.MaxAllocation) > 0 {
		return cfg, fmt.Errorf("%w: min allocation exceeds max allocation", ErrInvalidConfig)
	}
	if cfg.MaxAllocation.Cmp(cfg.FundRaisingTarget) > 0 {
		return cfg, fmt.Errorf("%w: max allocation exceeds fund raising target", ErrInvalidConfig)
	}

	out := model.Pool{PoolConfig: cfg}.Clone().PoolConfig
	if out.BaseAllocation == nil {
		out.BaseAllocation = new(big.Int).Set(out.MinAllocation)
	} else if out.BaseAllocation.Sign() <= 0 {
		return cfg, fmt.Errorf("%w: base allocation must be positive", ErrInvalidConfig)
	}
	return out, nil
}

// SetKYCMerkleRoot replaces the root future subscriptions are verified against.
func (r *Registry) SetKYCMerkleRoot(_ context.Context, caller common.Address, root common.Hash) error {
	if err := r.onlyOwner(caller); err != nil {
		return fmt.Errorf("setKYCMerkleRoot: %w", err)
	}
	r.mu.Lock()
	r.kycRoot = root
	r.mu.Unlock()

	r.logger.Info("kyc root updated", zap.String("root", root.Hex()))
	r.emit(r.now(), pendingEvent{
		name: EventKYCRootUpdated,
		data: []interface{}{[32]byte(root)},
	})
	return nil
}

// SetStakingRewards swaps the score source used for new subscriptions.
func (r *Registry) SetStakingRewards(_ context.Context, caller common.Address, scorer Scorer) error {
	if err := r.onlyOwner(caller); err != nil {
		return fmt.Errorf("addStakingRewards: %w", err)
	}
	if scorer == nil {
		return fmt.Errorf("addStakingRewards: %w: scorer is required", ErrInvalidConfig)
	}
	r.mu.Lock()
	r.scorer = scorer
	r.mu.Unlock()
	return nil
}

// PoolCount returns the number of pools created so far.
func (r *Registry) PoolCount() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uint64(len(r.pools))
}

// Pool returns a copy of the pool.
func (r *Registry) Pool(poolID uint64) (model.Pool, error) {
	ps, err := r.poolState(poolID)
	if err != nil {
		return model.Pool{}, err
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.pool.Clone(), nil
}

// PoolIDToTotalRaised returns the amount funded into the pool.
func (r *Registry) PoolIDToTotalRaised(poolID uint64) (*big.Int, error) {
	ps, err := r.poolState(poolID)
	if err != nil {
		return nil, err
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return new(big.Int).Set(ps.pool.TotalRaised), nil
}

// Subscription returns a copy of account's subscription to the pool.
func (r *Registry) Subscription(poolID uint64, account common.Address) (model.Subscription, error) {
	ps, err := r.poolState(poolID)
	if err != nil {
		return model.Subscription{}, err
	}
	ps.mu.Lock()
	defer ps.mu.Unlock()
	sub, ok := ps.subs[account]
	if !ok {
		return model.Subscription{}, ErrNotSubscribed
	}
	return sub.Clone(), nil
}

// GetMaximumAllocation returns the allocation fixed for account at subscription.
func (r *Registry) GetMaximumAllocation(poolID uint64, account common.Address) (*big.Int, error) {
	sub, err := r.Subscription(poolID, account)
	if err != nil {
		return nil, fmt.Errorf("getMaximumAllocation: %w", err)
	}
	return sub.MaximumAllocation, nil
}

func zero() *big.Int { return big.NewInt(0) }
