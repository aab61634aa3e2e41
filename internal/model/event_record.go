package model

import (
	"encoding/json"
)

// EventRecord is the normalized, EVM-log shaped form of a registry event.
type EventRecord struct {
	Seq       uint64   `json:"seq"`
	Name      string   `json:"event_name"`
	Topics    []string `json:"topics"`
	Data      string   `json:"data"`
	PoolID    *uint64  `json:"pool_id,omitempty"`
	Account   string   `json:"account,omitempty"`
	Amount    string   `json:"amount,omitempty"`
	Timestamp uint64   `json:"timestamp"`
}

// MarshalJSON ensures EventRecord is encoded with stable field names.
func (er EventRecord) MarshalJSON() ([]byte, error) {
	type Alias EventRecord
	return json.Marshal(Alias(er))
}

// UnmarshalJSON decodes an EventRecord from JSON.
func (er *EventRecord) UnmarshalJSON(data []byte) error {
	type Alias EventRecord
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*er = EventRecord(a)
	return nil
}
