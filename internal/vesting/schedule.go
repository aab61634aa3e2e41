package vesting

import (
	"errors"
	"fmt"
	"math/big"
)

var ErrInvalidSchedule = errors.New("invalid vesting schedule")

// Schedule is a linear release from Start to End, claimable from Cliff.
// Timestamps are unix seconds.
type Schedule struct {
	Start uint64 `json:"start"`
	Cliff uint64 `json:"cliff"`
	End   uint64 `json:"end"`
}

// Validate checks Start <= Cliff <= End and Start < End.
func (s Schedule) Validate() error {
	if s.Start >= s.End {
		return fmt.Errorf("%w: start %d must be before end %d", ErrInvalidSchedule, s.Start, s.End)
	}
	if s.Cliff < s.Start || s.Cliff > s.End {
		return fmt.Errorf("%w: cliff %d outside [%d, %d]", ErrInvalidSchedule, s.Cliff, s.Start, s.End)
	}
	return nil
}

// VestedFraction returns the released share at now, in [0, 1]. The cliff only
// gates eligibility; interpolation is anchored at Start.
func (s Schedule) VestedFraction(now uint64) *big.Rat {
	switch {
	case now < s.Cliff:
		return new(big.Rat)
	case now >= s.End:
		return big.NewRat(1, 1)
	case now <= s.Start:
		return new(big.Rat)
	}
	elapsed := new(big.Int).SetUint64(now - s.Start)
	duration := new(big.Int).SetUint64(s.End - s.Start)
	return new(big.Rat).SetFrac(elapsed, duration)
}

// VestedAmount returns floor(total * VestedFraction(now)).
func (s Schedule) VestedAmount(total *big.Int, now uint64) *big.Int {
	if total == nil || total.Sign() <= 0 {
		return big.NewInt(0)
	}
	switch {
	case now < s.Cliff:
		return big.NewInt(0)
	case now >= s.End:
		return new(big.Int).Set(total)
	case now <= s.Start:
		return big.NewInt(0)
	}
	vested := new(big.Int).Mul(total, new(big.Int).SetUint64(now-s.Start))
	return vested.Quo(vested, new(big.Int).SetUint64(s.End-s.Start))
}
