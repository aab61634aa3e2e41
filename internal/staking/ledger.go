package staking

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

const secondsPerDay = 24 * 60 * 60

var (
	ErrUnauthorized      = errors.New("caller is not the rewards distributor")
	ErrInvalidAmount     = errors.New("cannot stake or withdraw 0")
	ErrLockTooShort      = errors.New("lock shorter than minimum lock days")
	ErrLockTooLong       = errors.New("lock expiry out of range")
	ErrLocked            = errors.New("stake is still locked")
	ErrInsufficientStake = errors.New("withdraw amount exceeds stake")
	ErrInvalidDuration   = errors.New("reward duration must be positive")
	ErrRewardTooHigh     = errors.New("provided reward too high")
	ErrTransferFailed    = errors.New("token transfer failed")
)

var wad = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// Tokens is the ERC-20 surface the ledger moves stake and rewards through.
type Tokens interface {
	Transfer(ctx context.Context, token, from, to common.Address, amount *big.Int) error
	TransferFrom(ctx context.Context, token, spender, from, to common.Address, amount *big.Int) error
	BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error)
}

type Clock interface {
	Now() time.Time
}

// Config fixes the ledger parameters at deployment.
type Config struct {
	// Address is the custody account holding staked and reward tokens.
	Address      common.Address `json:"address"`
	StakingToken common.Address `json:"staking_token"`
	RewardsToken common.Address `json:"rewards_token"`
	Distributor  common.Address `json:"distributor"`
	// NonWithdrawalBoost is an 18-decimal bonus on rewards, 5e17 = +50%.
	NonWithdrawalBoost       *big.Int `json:"non_withdrawal_boost"`
	NonWithdrawalBoostPeriod uint64   `json:"non_withdrawal_boost_period_days"`
	MinimumLockDays          uint64   `json:"minimum_lock_days"`
}

type account struct {
	Balance    *big.Int `json:"balance"`
	LockExpiry uint64   `json:"lock_expiry"`
	// BoostStart is the last stake-from-zero or withdrawal time.
	BoostStart uint64   `json:"boost_start"`
	Paid       *big.Int `json:"reward_per_token_paid"`
	Rewards    *big.Int `json:"rewards"`
}

// Ledger tracks staked balances, lock expiries and reward accrual. Rewards
// accrue per token staked at rewardRate; a holder that has not withdrawn for
// the boost period collects them boosted.
type Ledger struct {
	mu     sync.Mutex
	cfg    Config
	tokens Tokens
	clock  Clock
	logger *zap.Logger

	totalSupply          *big.Int
	rewardRate           *big.Int
	periodFinish         uint64
	lastUpdateTime       uint64
	rewardPerTokenStored *big.Int
	accounts             map[common.Address]*account
}

func NewLedger(cfg Config, tokens Tokens, clock Clock, logger *zap.Logger) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.NonWithdrawalBoost == nil {
		cfg.NonWithdrawalBoost = big.NewInt(0)
	}
	return &Ledger{
		cfg:                  cfg,
		tokens:               tokens,
		clock:                clock,
		logger:               logger,
		totalSupply:          big.NewInt(0),
		rewardRate:           big.NewInt(0),
		rewardPerTokenStored: big.NewInt(0),
		accounts:             make(map[common.Address]*account),
	}
}

func (l *Ledger) Config() Config {
	return l.cfg
}

func (l *Ledger) now() uint64 {
	return uint64(l.clock.Now().Unix())
}

func (l *Ledger) account(addr common.Address) *account {
	acc := l.accounts[addr]
	if acc == nil {
		acc = &account{Balance: big.NewInt(0), Paid: big.NewInt(0), Rewards: big.NewInt(0)}
		l.accounts[addr] = acc
	}
	return acc
}

func (l *Ledger) lastTimeRewardApplicable(now uint64) uint64 {
	if now < l.periodFinish {
		return now
	}
	return l.periodFinish
}

func (l *Ledger) rewardPerToken(now uint64) *big.Int {
	if l.totalSupply.Sign() == 0 {
		return new(big.Int).Set(l.rewardPerTokenStored)
	}
	applicable := l.lastTimeRewardApplicable(now)
	if applicable <= l.lastUpdateTime {
		return new(big.Int).Set(l.rewardPerTokenStored)
	}
	delta := new(big.Int).SetUint64(applicable - l.lastUpdateTime)
	delta.Mul(delta, l.rewardRate)
	delta.Mul(delta, wad)
	delta.Quo(delta, l.totalSupply)
	return delta.Add(delta, l.rewardPerTokenStored)
}

func (l *Ledger) earned(acc *account, now uint64) *big.Int {
	rpt := l.rewardPerToken(now)
	out := new(big.Int).Sub(rpt, acc.Paid)
	out.Mul(out, acc.Balance)
	out.Quo(out, wad)
	return out.Add(out, acc.Rewards)
}

func (l *Ledger) updateReward(addr common.Address, now uint64) {
	l.rewardPerTokenStored = l.rewardPerToken(now)
	l.lastUpdateTime = l.lastTimeRewardApplicable(now)
	if addr == (common.Address{}) {
		return
	}
	acc := l.account(addr)
	acc.Rewards = l.earned(acc, now)
	acc.Paid = new(big.Int).Set(l.rewardPerTokenStored)
}

func (l *Ledger) boosted(acc *account, now uint64) bool {
	if acc.Balance.Sign() == 0 {
		return false
	}
	return now >= acc.BoostStart+l.cfg.NonWithdrawalBoostPeriod*secondsPerDay
}

// boost scales v by 1 + NonWithdrawalBoost.
func (l *Ledger) boost(v *big.Int) *big.Int {
	out := new(big.Int).Mul(v, new(big.Int).Add(wad, l.cfg.NonWithdrawalBoost))
	return out.Quo(out, wad)
}

// Stake locks amount of the staking token for at least lockDays.
func (l *Ledger) Stake(ctx context.Context, user common.Address, amount *big.Int, lockDays uint64) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if lockDays < l.cfg.MinimumLockDays {
		return fmt.Errorf("%w: %d < %d", ErrLockTooShort, lockDays, l.cfg.MinimumLockDays)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if lockDays > (^uint64(0)-now)/secondsPerDay {
		return fmt.Errorf("%w: %d days", ErrLockTooLong, lockDays)
	}
	l.updateReward(user, now)

	if err := l.tokens.TransferFrom(ctx, l.cfg.StakingToken, l.cfg.Address, user, l.cfg.Address, amount); err != nil {
		return fmt.Errorf("stake: %w: %v", ErrTransferFailed, err)
	}

	acc := l.account(user)
	if acc.Balance.Sign() == 0 {
		acc.BoostStart = now
	}
	acc.Balance = new(big.Int).Add(acc.Balance, amount)
	if expiry := now + lockDays*secondsPerDay; expiry > acc.LockExpiry {
		acc.LockExpiry = expiry
	}
	l.totalSupply.Add(l.totalSupply, amount)

	l.logger.Debug("staked",
		zap.String("user", user.Hex()),
		zap.String("amount", amount.String()),
		zap.Uint64("lock_expiry", acc.LockExpiry),
	)
	return nil
}

// Withdraw returns unlocked stake and restarts the non-withdrawal boost clock.
func (l *Ledger) Withdraw(ctx context.Context, user common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	acc := l.account(user)
	if now < acc.LockExpiry {
		return fmt.Errorf("%w until %d", ErrLocked, acc.LockExpiry)
	}
	if acc.Balance.Cmp(amount) < 0 {
		return fmt.Errorf("%w: have %s", ErrInsufficientStake, acc.Balance)
	}

	l.updateReward(user, now)

	if err := l.tokens.Transfer(ctx, l.cfg.StakingToken, l.cfg.Address, user, amount); err != nil {
		return fmt.Errorf("withdraw: %w: %v", ErrTransferFailed, err)
	}

	acc.Balance = new(big.Int).Sub(acc.Balance, amount)
	acc.BoostStart = now
	l.totalSupply.Sub(l.totalSupply, amount)
	return nil
}

// Earned returns the accrued, unboosted reward of user.
func (l *Ledger) Earned(user common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.accounts[user]
	if acc == nil {
		return big.NewInt(0)
	}
	return l.earned(acc, l.now())
}

// GetReward pays the accrued reward, boosted when the holder qualifies.
func (l *Ledger) GetReward(ctx context.Context, user common.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.updateReward(user, now)

	acc := l.account(user)
	reward := new(big.Int).Set(acc.Rewards)
	if reward.Sign() == 0 {
		return reward, nil
	}
	if l.boosted(acc, now) {
		reward = l.boost(reward)
	}

	if err := l.tokens.Transfer(ctx, l.cfg.RewardsToken, l.cfg.Address, user, reward); err != nil {
		return nil, fmt.Errorf("get reward: %w: %v", ErrTransferFailed, err)
	}
	acc.Rewards = big.NewInt(0)
	return reward, nil
}

// NotifyRewardAmount funds a new reward period of duration seconds.
func (l *Ledger) NotifyRewardAmount(ctx context.Context, caller common.Address, reward *big.Int, duration uint64) error {
	if caller != l.cfg.Distributor {
		return ErrUnauthorized
	}
	if reward == nil || reward.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if duration == 0 {
		return ErrInvalidDuration
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.updateReward(common.Address{}, now)

	rate := new(big.Int).Set(reward)
	if now < l.periodFinish {
		leftover := new(big.Int).SetUint64(l.periodFinish - now)
		leftover.Mul(leftover, l.rewardRate)
		rate.Add(rate, leftover)
	}
	rate.Quo(rate, new(big.Int).SetUint64(duration))
	if rate.Sign() == 0 {
		return fmt.Errorf("%w: reward rate rounds to zero", ErrInvalidAmount)
	}

	balance, err := l.tokens.BalanceOf(ctx, l.cfg.RewardsToken, l.cfg.Address)
	if err != nil {
		return fmt.Errorf("notify reward: %w", err)
	}
	available := new(big.Int).Add(balance, reward)
	if l.cfg.RewardsToken == l.cfg.StakingToken {
		available.Sub(available, l.totalSupply)
	}
	// Every holder may end up boosted, so the boosted rate must be covered.
	boostedRate := l.boost(rate)
	if boostedRate.Cmp(available.Quo(available, new(big.Int).SetUint64(duration))) > 0 {
		return fmt.Errorf("%w: boosted rate %s", ErrRewardTooHigh, boostedRate)
	}

	if err := l.tokens.TransferFrom(ctx, l.cfg.RewardsToken, l.cfg.Address, caller, l.cfg.Address, reward); err != nil {
		return fmt.Errorf("notify reward: %w: %v", ErrTransferFailed, err)
	}

	l.rewardRate = rate
	l.lastUpdateTime = now
	l.periodFinish = now + duration
	return nil
}

// ScoreOf returns whole staked tokens, doubled once the holder has gone the
// full boost period without withdrawing.
func (l *Ledger) ScoreOf(user common.Address, now uint64) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.accounts[user]
	if acc == nil || acc.Balance.Sign() == 0 {
		return 0
	}
	whole := new(big.Int).Quo(acc.Balance, wad)
	if !whole.IsUint64() {
		return ^uint64(0)
	}
	score := whole.Uint64()
	if l.boosted(acc, now) && score <= ^uint64(0)/2 {
		score *= 2
	}
	return score
}

// BalanceOf returns the staked balance of user.
func (l *Ledger) BalanceOf(user common.Address) *big.Int {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc := l.accounts[user]
	if acc == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(acc.Balance)
}

// LockExpiry returns when the stake of user unlocks.
func (l *Ledger) LockExpiry(user common.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if acc := l.accounts[user]; acc != nil {
		return acc.LockExpiry
	}
	return 0
}
