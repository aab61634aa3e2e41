package staking

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"launchpad/internal/token"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func (c *fakeClock) unix() uint64 { return uint64(c.now.Unix()) }

var (
	custody      = common.HexToAddress("0x5000000000000000000000000000000000000005")
	stakingToken = common.HexToAddress("0x5100000000000000000000000000000000000051")
	rewardsToken = common.HexToAddress("0x5200000000000000000000000000000000000052")
	distributor  = common.HexToAddress("0x5300000000000000000000000000000000000053")
	staker       = common.HexToAddress("0x5400000000000000000000000000000000000054")
)

const day = 24 * time.Hour

func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), wad)
}

func newTestLedger(t *testing.T) (*Ledger, *token.Ledger, *fakeClock) {
	t.Helper()
	tl := token.NewLedger()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	l := NewLedger(Config{
		Address:                  custody,
		StakingToken:             stakingToken,
		RewardsToken:             rewardsToken,
		Distributor:              distributor,
		NonWithdrawalBoost:       new(big.Int).Mul(big.NewInt(5), new(big.Int).Exp(big.NewInt(10), big.NewInt(17), nil)),
		NonWithdrawalBoostPeriod: 356,
		MinimumLockDays:          7,
	}, tl, clock, nil)

	require.NoError(t, tl.Mint(stakingToken, staker, tokens(1000)))
	require.NoError(t, tl.Approve(stakingToken, staker, custody, tokens(1000)))
	return l, tl, clock
}

func TestStakeLockAndWithdraw(t *testing.T) {
	ctx := context.Background()
	l, tl, clock := newTestLedger(t)

	require.ErrorIs(t, l.Stake(ctx, staker, tokens(100), 6), ErrLockTooShort)
	require.ErrorIs(t, l.Stake(ctx, staker, big.NewInt(0), 7), ErrInvalidAmount)
	require.NoError(t, l.Stake(ctx, staker, tokens(100), 7))
	require.Equal(t, uint64(100), l.ScoreOf(staker, clock.unix()))

	require.ErrorIs(t, l.Withdraw(ctx, staker, tokens(10)), ErrLocked)

	clock.advance(8 * day)
	require.ErrorIs(t, l.Withdraw(ctx, staker, tokens(101)), ErrInsufficientStake)
	require.NoError(t, l.Withdraw(ctx, staker, tokens(10)))
	require.Equal(t, 0, l.BalanceOf(staker).Cmp(tokens(90)))

	bal, err := tl.BalanceOf(ctx, stakingToken, staker)
	require.NoError(t, err)
	require.Equal(t, 0, bal.Cmp(tokens(910)))
}

func TestScoreDoublesAfterBoostPeriod(t *testing.T) {
	ctx := context.Background()
	l, _, clock := newTestLedger(t)

	require.NoError(t, l.Stake(ctx, staker, tokens(150), 7))
	clock.advance(355 * day)
	require.Equal(t, uint64(150), l.ScoreOf(staker, clock.unix()))
	clock.advance(day)
	require.Equal(t, uint64(300), l.ScoreOf(staker, clock.unix()))

	require.NoError(t, l.Withdraw(ctx, staker, tokens(50)))
	require.Equal(t, uint64(100), l.ScoreOf(staker, clock.unix()))
}

func TestStakeWithoutApprovalLeavesNoState(t *testing.T) {
	ctx := context.Background()
	l, tl, _ := newTestLedger(t)
	require.NoError(t, tl.Approve(stakingToken, staker, custody, big.NewInt(0)))

	require.ErrorIs(t, l.Stake(ctx, staker, tokens(5), 7), ErrTransferFailed)
	require.Equal(t, 0, l.BalanceOf(staker).Sign())
	require.Equal(t, uint64(0), l.LockExpiry(staker))
}

func TestStakeRejectsLockPastMaxTime(t *testing.T) {
	ctx := context.Background()
	l, tl, _ := newTestLedger(t)

	err := l.Stake(ctx, staker, tokens(100), ^uint64(0)/secondsPerDay+1)
	require.ErrorIs(t, err, ErrLockTooLong)
	require.Equal(t, 0, l.BalanceOf(staker).Sign())
	require.Equal(t, uint64(0), l.LockExpiry(staker))

	bal, err := tl.BalanceOf(ctx, stakingToken, staker)
	require.NoError(t, err)
	require.Equal(t, 0, bal.Cmp(tokens(1000)))
}

func TestNotifyRequiresBoostedFunding(t *testing.T) {
	ctx := context.Background()
	l, tl, _ := newTestLedger(t)
	require.NoError(t, l.Stake(ctx, staker, tokens(100), 7))

	reward := tokens(700)
	require.NoError(t, tl.Mint(rewardsToken, distributor, reward))
	require.NoError(t, tl.Approve(rewardsToken, distributor, custody, reward))

	// 700 only covers the unboosted rate.
	err := l.NotifyRewardAmount(ctx, distributor, reward, uint64(7*day/time.Second))
	require.ErrorIs(t, err, ErrRewardTooHigh)

	bal, err := tl.BalanceOf(ctx, rewardsToken, distributor)
	require.NoError(t, err)
	require.Equal(t, 0, bal.Cmp(reward))
}

func TestRewardsAccrueAndBoost(t *testing.T) {
	ctx := context.Background()
	l, tl, clock := newTestLedger(t)

	require.NoError(t, l.Stake(ctx, staker, tokens(100), 7))

	reward := tokens(700)
	require.ErrorIs(t, l.NotifyRewardAmount(ctx, staker, reward, uint64(7*day/time.Second)), ErrUnauthorized)

	// Custody carries the +50% boost reserve before the period starts.
	require.NoError(t, tl.Mint(rewardsToken, custody, tokens(350)))
	require.NoError(t, tl.Mint(rewardsToken, distributor, reward))
	require.NoError(t, tl.Approve(rewardsToken, distributor, custody, reward))
	require.NoError(t, l.NotifyRewardAmount(ctx, distributor, reward, uint64(7*day/time.Second)))

	clock.advance(7 * day)
	earned := l.Earned(staker)
	require.True(t, earned.Cmp(reward) <= 0)
	require.True(t, earned.Cmp(new(big.Int).Sub(reward, wad)) > 0)

	clock.advance(350 * day)

	paid, err := l.GetReward(ctx, staker)
	require.NoError(t, err)
	expected := new(big.Int).Mul(earned, big.NewInt(15))
	expected.Quo(expected, big.NewInt(10))
	require.Equal(t, 0, paid.Cmp(expected))
	require.Equal(t, 0, l.Earned(staker).Sign())

	left, err := tl.BalanceOf(ctx, rewardsToken, custody)
	require.NoError(t, err)
	require.True(t, left.Sign() >= 0)
	require.True(t, left.Cmp(wad) < 0)
}

func TestSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	l, tl, clock := newTestLedger(t)
	require.NoError(t, l.Stake(ctx, staker, tokens(42), 10))

	restored := Restore(l.Snapshot(), tl, clock, nil)
	require.Equal(t, 0, restored.BalanceOf(staker).Cmp(tokens(42)))
	require.Equal(t, l.LockExpiry(staker), restored.LockExpiry(staker))
	require.Equal(t, uint64(42), restored.ScoreOf(staker, clock.unix()))
}
