package audit

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"launchpad/internal/chain"
	"launchpad/internal/model"
)

// ChainReader reads the chain head and ERC-20 state.
type ChainReader interface {
	GetChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	BalanceOf(ctx context.Context, token, account common.Address, blockNumber *big.Int) (*big.Int, error)
	Decimals(ctx context.Context, token common.Address) (uint8, error)
}

// Line is the comparison for one token held in escrow.
type Line struct {
	Token    common.Address
	Expected *big.Int
	Actual   *big.Int
	Decimals uint8
}

// Shortfall is Expected minus Actual, zero when escrow holds enough.
func (l Line) Shortfall() *big.Int {
	diff := new(big.Int).Sub(l.Expected, l.Actual)
	if diff.Sign() < 0 {
		return big.NewInt(0)
	}
	return diff
}

// Report is one audit pinned to a single block.
type Report struct {
	ChainID   *big.Int
	Block     uint64
	BlockTime uint64
	Lines     []Line
}

// Format renders v in the token's decimals.
func (l Line) Format(v *big.Int) string {
	return decimal.NewFromBigInt(v, -int32(l.Decimals)).String()
}

// ExpectedEscrow returns what escrow must hold per token: raised funds not yet
// claimed plus deposited rewards not yet paid.
func ExpectedEscrow(pools []model.Pool) map[common.Address]*big.Int {
	out := make(map[common.Address]*big.Int)
	add := func(token common.Address, v *big.Int) {
		if v == nil || v.Sign() <= 0 {
			return
		}
		if cur, ok := out[token]; ok {
			cur.Add(cur, v)
			return
		}
		out[token] = new(big.Int).Set(v)
	}
	for _, pool := range pools {
		if !pool.FundsClaimed {
			add(pool.FundRaisingToken, pool.TotalRaised)
		}
		if pool.Vesting != nil {
			add(pool.RewardToken, new(big.Int).Sub(pool.Vesting.RewardAmount, pool.TotalRewardClaimed))
		}
	}
	return out
}

type Auditor struct {
	reader       ChainReader
	maxRetries   int
	retryBackoff time.Duration
	logger       *zap.Logger
}

// NewAuditor reads balances through reader, retrying failed calls.
func NewAuditor(reader ChainReader, maxRetries int, retryBackoff time.Duration, logger *zap.Logger) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{reader: reader, maxRetries: maxRetries, retryBackoff: retryBackoff, logger: logger}
}

// Run compares expected escrow holdings with the balances escrow holds at the
// current head block. Lines are ordered by token address.
func (a *Auditor) Run(ctx context.Context, escrow common.Address, pools []model.Pool) (Report, error) {
	var report Report
	err := a.retry(ctx, "head", func(ctx context.Context) error {
		chainID, err := a.reader.GetChainID(ctx)
		if err != nil {
			return err
		}
		block, err := a.reader.LatestBlockNumber(ctx)
		if err != nil {
			return err
		}
		header, err := a.reader.HeaderByNumber(ctx, new(big.Int).SetUint64(block))
		if err != nil {
			return err
		}
		report.ChainID, report.Block, report.BlockTime = chainID, block, header.Time
		return nil
	})
	if err != nil {
		return Report{}, fmt.Errorf("read chain head: %w", err)
	}
	blockNumber := new(big.Int).SetUint64(report.Block)

	expected := ExpectedEscrow(pools)
	tokens := make([]common.Address, 0, len(expected))
	for token := range expected {
		tokens = append(tokens, token)
	}
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].Hex() < tokens[j].Hex() })

	report.Lines = make([]Line, 0, len(tokens))
	for _, token := range tokens {
		line := Line{Token: token, Expected: expected[token]}
		err := a.retry(ctx, "balanceOf", func(ctx context.Context) error {
			balance, err := a.reader.BalanceOf(ctx, token, escrow, blockNumber)
			if err != nil {
				return err
			}
			line.Actual = balance
			return nil
		})
		if err != nil {
			return Report{}, fmt.Errorf("balanceOf %s: %w", token.Hex(), err)
		}

		dec, err := a.reader.Decimals(ctx, token)
		if err != nil {
			a.logger.Warn("decimals failed, assuming 18", zap.String("token", token.Hex()), zap.Error(err))
			dec = 18
		}
		line.Decimals = dec
		report.Lines = append(report.Lines, line)
	}
	return report, nil
}

func (a *Auditor) retry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return chain.WithRetry(ctx, a.maxRetries, a.retryBackoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			a.logger.Warn("rpc call failed", zap.String("op", op), zap.Error(err))
			return err
		}
		return nil
	})
}
