package token

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

var (
	tokenA = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	alice  = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob    = common.HexToAddress("0x2222222222222222222222222222222222222222")
	escrow = common.HexToAddress("0x3333333333333333333333333333333333333333")
)

func TestTransferFromSpendsAllowance(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	if err := l.Mint(tokenA, alice, big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := l.TransferFrom(ctx, tokenA, escrow, alice, escrow, big.NewInt(10)); !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("expected allowance error, got %v", err)
	}

	if err := l.Approve(tokenA, alice, escrow, big.NewInt(60)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := l.TransferFrom(ctx, tokenA, escrow, alice, escrow, big.NewInt(40)); err != nil {
		t.Fatalf("transferFrom: %v", err)
	}
	if got := l.Allowance(tokenA, alice, escrow); got.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("allowance: got %s", got)
	}
	bal, _ := l.BalanceOf(ctx, tokenA, escrow)
	if bal.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("escrow balance: got %s", bal)
	}
}

func TestTransferInsufficientBalanceLeavesState(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	_ = l.Mint(tokenA, alice, big.NewInt(5))

	if err := l.Transfer(ctx, tokenA, alice, bob, big.NewInt(6)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected balance error, got %v", err)
	}
	bal, _ := l.BalanceOf(ctx, tokenA, alice)
	if bal.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("balance changed on failed transfer: %s", bal)
	}
}

func TestLedgerSnapshotRestore(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	_ = l.Mint(tokenA, alice, big.NewInt(100))
	_ = l.Transfer(ctx, tokenA, alice, bob, big.NewInt(30))
	_ = l.Approve(tokenA, bob, escrow, big.NewInt(7))

	restored := RestoreLedger(l.Snapshot())
	bal, _ := restored.BalanceOf(ctx, tokenA, bob)
	if bal.Cmp(big.NewInt(30)) != 0 {
		t.Fatalf("restored balance: %s", bal)
	}
	if restored.Allowance(tokenA, bob, escrow).Cmp(big.NewInt(7)) != 0 {
		t.Fatalf("restored allowance mismatch")
	}
	if restored.TotalSupply(tokenA).Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("restored supply mismatch")
	}
}

func TestUtilityNFTConsume(t *testing.T) {
	ctx := context.Background()
	n := NewUtilityNFT()
	id, err := n.Mint(alice, big.NewInt(1000))
	if err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := n.ConsumeAllocation(ctx, id, big.NewInt(400)); err != nil {
		t.Fatalf("consume: %v", err)
	}
	avail, _ := n.GetAvailableAllocation(ctx, id)
	if avail.Cmp(big.NewInt(600)) != 0 {
		t.Fatalf("available: %s", avail)
	}
	if err := n.ConsumeAllocation(ctx, id, big.NewInt(601)); !errors.Is(err, ErrAllocationOverrun) {
		t.Fatalf("expected overrun, got %v", err)
	}
	if _, err := n.OwnerOf(ctx, 7); !errors.Is(err, ErrUnknownNFT) {
		t.Fatalf("expected unknown nft, got %v", err)
	}

	restored := RestoreNFT(n.Records())
	owner, _ := restored.OwnerOf(ctx, id)
	if owner != alice {
		t.Fatalf("restored owner mismatch")
	}
}
