package config

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

// AmountDecimals is the precision of every amount handled by the launchpad.
const AmountDecimals = 18

// ParseAmount converts a decimal string such as "0.01" into 18-decimal base
// units. More than 18 fractional digits is an error.
func ParseAmount(input string) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(input))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", input, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("invalid amount %q: negative", input)
	}
	scaled := d.Shift(AmountDecimals)
	if !scaled.Equal(scaled.Truncate(0)) {
		return nil, fmt.Errorf("invalid amount %q: more than %d decimals", input, AmountDecimals)
	}
	return scaled.BigInt(), nil
}

// FormatAmount renders 18-decimal base units as a decimal string.
func FormatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -AmountDecimals).String()
}

// ParseAddress converts a hex string into common.Address.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %s", input)
	}
	return common.HexToAddress(input), nil
}

// ParseAddresses converts string addresses into common.Address.
func ParseAddresses(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		addr, err := ParseAddress(input)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, addr)
	}
	return addresses, nil
}

// ParseHash converts a 0x-prefixed 32-byte hex string into common.Hash.
func ParseHash(input string) (common.Hash, error) {
	data, err := hexutil.Decode(strings.TrimSpace(input))
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid hash: %s", input)
	}
	if len(data) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid hash length: %s", input)
	}
	return common.BytesToHash(data), nil
}

// ParseHashes converts proof elements into common.Hash values.
func ParseHashes(inputs []string) ([]common.Hash, error) {
	hashes := make([]common.Hash, 0, len(inputs))
	for _, input := range inputs {
		if strings.TrimSpace(input) == "" {
			continue
		}
		h, err := ParseHash(input)
		if err != nil {
			return nil, err
		}
		hashes = append(hashes, h)
	}
	return hashes, nil
}

// ParseUints converts decimal strings into uint64 values.
func ParseUints(inputs []string) ([]uint64, error) {
	out := make([]uint64, 0, len(inputs))
	for _, input := range inputs {
		val, err := strconv.ParseUint(strings.TrimSpace(input), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", input, err)
		}
		out = append(out, val)
	}
	return out, nil
}

// ParseTimestamp accepts unix seconds or RFC3339. Empty input yields 0.
func ParseTimestamp(input string) (uint64, error) {
	if strings.TrimSpace(input) == "" {
		return 0, nil
	}

	if isNumeric(input) {
		val, err := strconv.ParseUint(input, 10, 64)
		if err != nil {
			return 0, err
		}
		return val, nil
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return uint64(tm.Unix()), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
