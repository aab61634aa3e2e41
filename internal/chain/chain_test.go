package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

func TestWithRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), 3, time.Millisecond, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetryReturnsLastError(t *testing.T) {
	want := errors.New("down")
	calls := 0
	err := WithRetry(context.Background(), 2, time.Millisecond, func(context.Context) error {
		calls++
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestWithRetryHonorsCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithRetry(ctx, 5, time.Hour, func(context.Context) error {
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestBalanceOfCallData(t *testing.T) {
	parsed, err := erc20ABIInstance()
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	account := common.HexToAddress("0x00000000000000000000000000000000000000ff")
	data, err := parsed.Pack("balanceOf", account)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	if got := hexutil.Encode(data[:4]); got != "0x70a08231" {
		t.Fatalf("unexpected selector %s", got)
	}
	if len(data) != 36 || data[35] != 0xff {
		t.Fatalf("unexpected call data %x", data)
	}

	out := common.LeftPadBytes(big.NewInt(1234).Bytes(), 32)
	v, err := unpackUint256(parsed, "balanceOf", out)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if v.Cmp(big.NewInt(1234)) != 0 {
		t.Fatalf("unexpected balance %s", v)
	}
}
