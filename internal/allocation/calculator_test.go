package allocation

import (
	"errors"
	"math/big"
	"testing"
)

func units(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
}

func TestCompute(t *testing.T) {
	cases := []struct {
		name string
		in   Input
		want *big.Int
	}{
		{
			name: "tier multiplier inside bounds",
			in:   Input{Multiplier: 250, Base: units(500), Min: units(500), Max: units(10000)},
			want: units(1250),
		},
		{
			name: "clamped to max",
			in:   Input{Multiplier: 300, Base: units(5000), Min: units(500), Max: units(10000)},
			want: units(10000),
		},
		{
			name: "clamped to min",
			in:   Input{Multiplier: 100, Base: units(100), Min: units(500), Max: units(10000)},
			want: units(500),
		},
		{
			name: "zero multiplier without nft",
			in:   Input{Multiplier: 0, Base: units(500), Min: units(500), Max: units(10000)},
			want: big.NewInt(0),
		},
		{
			name: "nft above tier",
			in:   Input{Multiplier: 100, NFTGranted: units(1000), Base: units(500), Min: units(500), Max: units(10000)},
			want: units(1000),
		},
		{
			name: "nft below tier",
			in:   Input{Multiplier: 300, NFTGranted: units(1000), Base: units(500), Min: units(500), Max: units(10000)},
			want: units(1500),
		},
		{
			name: "nft capped at max",
			in:   Input{Multiplier: 0, NFTGranted: units(20000), Base: units(500), Min: units(500), Max: units(10000)},
			want: units(10000),
		},
	}

	for _, tc := range cases {
		got, err := Compute(tc.in)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got.Cmp(tc.want) != 0 {
			t.Fatalf("%s: got %s want %s", tc.name, got, tc.want)
		}
	}
}

func TestComputeInvalid(t *testing.T) {
	cases := []Input{
		{Multiplier: 100, Base: units(1), Min: units(10), Max: units(5)},
		{Multiplier: 100, Base: units(1), Min: big.NewInt(0), Max: units(5)},
		{Multiplier: 100, Base: big.NewInt(-1), Min: units(1), Max: units(5)},
		{Multiplier: 100, NFTGranted: big.NewInt(-1), Base: units(1), Min: units(1), Max: units(5)},
		{Multiplier: 100},
	}
	for i, in := range cases {
		if _, err := Compute(in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestComputeDoesNotAliasInputs(t *testing.T) {
	max := units(10000)
	in := Input{Multiplier: 300, Base: units(5000), Min: units(500), Max: max}
	got, err := Compute(in)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	got.SetInt64(1)
	if max.Cmp(units(10000)) != 0 {
		t.Fatalf("max was mutated through result")
	}
}
