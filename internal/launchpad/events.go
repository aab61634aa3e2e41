package launchpad

import (
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"

	"launchpad/internal/model"
)

const (
	EventPoolCreated        = "PoolCreated"
	EventSubscribed         = "Subscribed"
	EventFunded             = "Funded"
	EventVestingConfigured  = "VestingConfigured"
	EventRewardClaimed      = "RewardClaimed"
	EventFundRaisingClaimed = "FundRaisingClaimed"
	EventKYCRootUpdated     = "KYCRootUpdated"
)

const registryEventsABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "poolId", "type": "uint256"},
      {"indexed": false, "name": "rewardToken", "type": "address"},
      {"indexed": false, "name": "fundRaisingToken", "type": "address"},
      {"indexed": false, "name": "fundRaisingTarget", "type": "uint256"}
    ],
    "name": "PoolCreated",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "poolId", "type": "uint256"},
      {"indexed": true, "name": "user", "type": "address"},
      {"indexed": false, "name": "maximumAllocation", "type": "uint256"}
    ],
    "name": "Subscribed",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "poolId", "type": "uint256"},
      {"indexed": true, "name": "user", "type": "address"},
      {"indexed": false, "name": "amount", "type": "uint256"}
    ],
    "name": "Funded",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "poolId", "type": "uint256"},
      {"indexed": false, "name": "rewardAmount", "type": "uint256"},
      {"indexed": false, "name": "rewardStartTime", "type": "uint256"},
      {"indexed": false, "name": "rewardCliffEndTime", "type": "uint256"},
      {"indexed": false, "name": "rewardEndTime", "type": "uint256"}
    ],
    "name": "VestingConfigured",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "poolId", "type": "uint256"},
      {"indexed": true, "name": "user", "type": "address"},
      {"indexed": false, "name": "amount", "type": "uint256"}
    ],
    "name": "RewardClaimed",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "name": "poolId", "type": "uint256"},
      {"indexed": true, "name": "recipient", "type": "address"},
      {"indexed": false, "name": "amount", "type": "uint256"}
    ],
    "name": "FundRaisingClaimed",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "name": "root", "type": "bytes32"}
    ],
    "name": "KYCRootUpdated",
    "type": "event"
  }
]`

var (
	registryEventsABI     abi.ABI
	registryEventsABIOnce sync.Once
	registryEventsABIErr  error
)

// EventsABI returns the parsed registry event ABI.
func EventsABI() (abi.ABI, error) {
	registryEventsABIOnce.Do(func() {
		registryEventsABI, registryEventsABIErr = abi.JSON(strings.NewReader(registryEventsABIJSON))
	})
	return registryEventsABI, registryEventsABIErr
}

// pendingEvent is an event awaiting a sequence number.
type pendingEvent struct {
	name    string
	poolID  *uint64
	account common.Address
	amount  *big.Int
	// indexed holds topic values after topic0, data the non-indexed values.
	indexed []common.Hash
	data    []interface{}
}

func poolTopic(poolID uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(poolID))
}

func addressTopic(addr common.Address) common.Hash {
	return common.BytesToHash(addr.Bytes())
}

func buildEventRecord(seq, timestamp uint64, ev pendingEvent) (model.EventRecord, error) {
	eventsABI, err := EventsABI()
	if err != nil {
		return model.EventRecord{}, fmt.Errorf("parse events abi: %w", err)
	}
	def, ok := eventsABI.Events[ev.name]
	if !ok {
		return model.EventRecord{}, fmt.Errorf("unknown event: %s", ev.name)
	}

	data, err := def.Inputs.NonIndexed().Pack(ev.data...)
	if err != nil {
		return model.EventRecord{}, fmt.Errorf("pack %s: %w", ev.name, err)
	}

	topics := make([]string, 0, 1+len(ev.indexed))
	topics = append(topics, def.ID.Hex())
	for _, topic := range ev.indexed {
		topics = append(topics, topic.Hex())
	}

	rec := model.EventRecord{
		Seq:       seq,
		Name:      ev.name,
		Topics:    topics,
		Data:      hexutil.Encode(data),
		PoolID:    ev.poolID,
		Timestamp: timestamp,
	}
	if ev.account != (common.Address{}) {
		rec.Account = ev.account.Hex()
	}
	if ev.amount != nil {
		rec.Amount = ev.amount.String()
	}
	return rec, nil
}

// emit sequences ev into the journal and forwards it to the sink. The state
// change it describes is already committed, so sink failures are logged only.
func (r *Registry) emit(timestamp uint64, ev pendingEvent) {
	r.eventsMu.Lock()
	defer r.eventsMu.Unlock()

	rec, err := buildEventRecord(r.nextSeq, timestamp, ev)
	if err != nil {
		r.logger.Error("build event", zap.String("event", ev.name), zap.Error(err))
		return
	}
	r.nextSeq++
	r.journal = append(r.journal, rec)

	if r.sink == nil {
		return
	}
	if err := r.sink.PutEventBatch([]model.EventRecord{rec}); err != nil {
		r.logger.Warn("event sink failed", zap.String("event", ev.name), zap.Uint64("seq", rec.Seq), zap.Error(err))
	}
}

// Events returns journaled events with Seq >= fromSeq.
func (r *Registry) Events(fromSeq uint64) []model.EventRecord {
	r.eventsMu.Lock()
	defer r.eventsMu.Unlock()

	out := make([]model.EventRecord, 0, len(r.journal))
	for _, rec := range r.journal {
		if rec.Seq >= fromSeq {
			out = append(out, rec)
		}
	}
	return out
}
