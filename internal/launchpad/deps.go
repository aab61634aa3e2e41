package launchpad

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"launchpad/internal/model"
)

// TokenLedger is the ERC-20 surface used for escrow deposits and payouts.
// A transfer that reports failure must return a non-nil error.
type TokenLedger interface {
	Transfer(ctx context.Context, token, from, to common.Address, amount *big.Int) error
	TransferFrom(ctx context.Context, token, spender, from, to common.Address, amount *big.Int) error
	BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error)
}

// UtilityNFT grants guaranteed allocation to its holder.
type UtilityNFT interface {
	OwnerOf(ctx context.Context, id uint64) (common.Address, error)
	GuaranteedAllocationOf(ctx context.Context, id uint64) (*big.Int, error)
	GetAvailableAllocation(ctx context.Context, id uint64) (*big.Int, error)
	ConsumeAllocation(ctx context.Context, id uint64, amount *big.Int) error
}

// Scorer reports the staking score of an account at a point in time.
type Scorer interface {
	ScoreOf(account common.Address, now uint64) uint64
}

type Clock interface {
	Now() time.Time
}

// EventSink receives committed events in sequence order.
type EventSink interface {
	PutEventBatch(events []model.EventRecord) error
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Deps are the collaborators a Registry is wired to.
type Deps struct {
	Tokens TokenLedger
	NFT    UtilityNFT
	Scorer Scorer
	Clock  Clock
	Sink   EventSink
	Logger *zap.Logger
}
