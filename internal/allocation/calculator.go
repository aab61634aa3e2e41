package allocation

import (
	"errors"
	"fmt"
	"math/big"
)

// MultiplierDenominator expresses multipliers in percent: 250 means 2.5x.
const MultiplierDenominator = 100

// ErrInvalidInput covers bounds that could yield an allocation below one unit.
var ErrInvalidInput = errors.New("invalid allocation input")

// Input carries everything needed to bound one subscriber.
type Input struct {
	Multiplier uint64
	NFTGranted *big.Int
	Base       *big.Int
	Min        *big.Int
	Max        *big.Int
}

// Compute returns the maximum contribution for a subscriber.
//
// The tier allocation is Base*Multiplier/100 clamped to [Min, Max]; a zero
// multiplier yields no tier allocation. A positive NFT grant lifts the result
// to min(NFTGranted, Max) when that is larger.
func Compute(in Input) (*big.Int, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	result := big.NewInt(0)
	if in.Multiplier > 0 {
		result.Mul(in.Base, new(big.Int).SetUint64(in.Multiplier))
		result.Quo(result, big.NewInt(MultiplierDenominator))
		result = clamp(result, in.Min, in.Max)
	}

	if in.NFTGranted != nil && in.NFTGranted.Sign() > 0 {
		nft := new(big.Int).Set(in.NFTGranted)
		if nft.Cmp(in.Max) > 0 {
			nft.Set(in.Max)
		}
		if nft.Cmp(result) > 0 {
			result = nft
		}
	}

	return result, nil
}

func validate(in Input) error {
	if in.Base == nil || in.Min == nil || in.Max == nil {
		return fmt.Errorf("%w: base, min and max are required", ErrInvalidInput)
	}
	if in.Base.Sign() < 0 || in.Min.Sign() <= 0 || in.Max.Sign() <= 0 {
		return fmt.Errorf("%w: negative or zero bounds", ErrInvalidInput)
	}
	if in.Min.Cmp(in.Max) > 0 {
		return fmt.Errorf("%w: min %s exceeds max %s", ErrInvalidInput, in.Min, in.Max)
	}
	if in.NFTGranted != nil && in.NFTGranted.Sign() < 0 {
		return fmt.Errorf("%w: negative nft grant", ErrInvalidInput)
	}
	return nil
}

func clamp(v, lo, hi *big.Int) *big.Int {
	if v.Cmp(lo) < 0 {
		return new(big.Int).Set(lo)
	}
	if v.Cmp(hi) > 0 {
		return new(big.Int).Set(hi)
	}
	return v
}
