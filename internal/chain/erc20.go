package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20ABIJSON = `[
  {"inputs": [{"name": "account", "type": "address"}], "name": "balanceOf", "outputs": [{"type": "uint256"}], "stateMutability": "view", "type": "function"},
  {"inputs": [], "name": "decimals", "outputs": [{"type": "uint8"}], "stateMutability": "view", "type": "function"}
]`

var (
	erc20ABI     abi.ABI
	erc20ABIOnce sync.Once
	erc20ABIErr  error
)

func erc20ABIInstance() (abi.ABI, error) {
	erc20ABIOnce.Do(func() {
		erc20ABI, erc20ABIErr = abi.JSON(strings.NewReader(erc20ABIJSON))
	})
	return erc20ABI, erc20ABIErr
}

// BalanceOf returns the ERC-20 balance of account at blockNumber (nil for latest).
func (c *Client) BalanceOf(ctx context.Context, token, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	parsed, err := erc20ABIInstance()
	if err != nil {
		return nil, err
	}
	data, err := parsed.Pack("balanceOf", account)
	if err != nil {
		return nil, fmt.Errorf("pack balanceOf: %w", err)
	}
	out, err := c.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, blockNumber)
	if err != nil {
		return nil, err
	}
	return unpackUint256(parsed, "balanceOf", out)
}

// Decimals returns the ERC-20 decimals of token, cached per address.
func (c *Client) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	key := strings.ToLower(token.Hex())
	c.mu.RLock()
	dec, ok := c.decimals[key]
	c.mu.RUnlock()
	if ok {
		return dec, nil
	}

	parsed, err := erc20ABIInstance()
	if err != nil {
		return 0, err
	}
	data, err := parsed.Pack("decimals")
	if err != nil {
		return 0, fmt.Errorf("pack decimals: %w", err)
	}
	out, err := c.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return 0, err
	}
	values, err := parsed.Unpack("decimals", out)
	if err != nil {
		return 0, fmt.Errorf("unpack decimals: %w", err)
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("unexpected decimals output")
	}
	dec, ok = values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals type %T", values[0])
	}

	c.mu.Lock()
	c.decimals[key] = dec
	c.mu.Unlock()
	return dec, nil
}

func unpackUint256(parsed abi.ABI, method string, out []byte) (*big.Int, error) {
	values, err := parsed.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected %s output", method)
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected %s type %T", method, values[0])
	}
	return v, nil
}
