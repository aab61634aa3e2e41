package model

import (
	"encoding/json"
	"math/big"
	"reflect"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"launchpad/internal/vesting"
)

func TestEventRecordJSONRoundTrip(t *testing.T) {
	poolID := uint64(3)
	original := EventRecord{
		Seq:       12,
		Name:      "Funded",
		Topics:    []string{"0xaaa", "0xbbb"},
		Data:      "0xdeadbeef",
		PoolID:    &poolID,
		Account:   "0x1111111111111111111111111111111111111111",
		Amount:    "1250000000000000000000",
		Timestamp: 1700000000,
	}

	b, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded EventRecord
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if !reflect.DeepEqual(original, decoded) {
		t.Fatalf("round-trip mismatch: %+v != %+v", original, decoded)
	}
}

func TestEventRecordOmitsPoolForRegistryEvents(t *testing.T) {
	b, err := json.Marshal(EventRecord{Seq: 1, Name: "KYCRootUpdated"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, ok := decoded["pool_id"]; ok {
		t.Fatalf("pool_id should be omitted")
	}
}

func TestPoolCloneIsDeep(t *testing.T) {
	original := Pool{
		ID: 1,
		PoolConfig: PoolConfig{
			RewardToken:       common.HexToAddress("0x01"),
			FundRaisingTarget: big.NewInt(100),
			TokenPrice:        big.NewInt(1),
			MinAllocation:     big.NewInt(1),
			MaxAllocation:     big.NewInt(10),
		},
		TotalRaised:        big.NewInt(5),
		TotalRewardClaimed: big.NewInt(0),
		Vesting: &Vesting{
			RewardAmount: big.NewInt(500),
			Schedule:     vesting.Schedule{Start: 1, Cliff: 2, End: 3},
		},
	}

	clone := original.Clone()
	clone.TotalRaised.SetInt64(99)
	clone.Vesting.RewardAmount.SetInt64(1)

	if original.TotalRaised.Int64() != 5 {
		t.Fatalf("total raised aliased")
	}
	if original.Vesting.RewardAmount.Int64() != 500 {
		t.Fatalf("vesting aliased")
	}
}
