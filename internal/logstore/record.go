package logstore

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rzbill/calclog/internal/eventlog"
)

// Status is a reserved lifecycle tag. It is stored and echoed, never interpreted.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is empty or one of the known tags.
func (s Status) Valid() bool {
	switch s {
	case "", StatusPending, StatusCompleted:
		return true
	}
	return false
}

// Record is one immutable calculator log entry.
type Record struct {
	ID         uint64    `json:"id"`
	Expression string    `json:"expression"`
	IsValid    bool      `json:"isValid"`
	Output     *float64  `json:"output"`
	CreatedOn  time.Time `json:"createdOn"`
	Status     Status    `json:"status,omitempty"`
}

// Draft is a record before the store assigns its id and creation time.
type Draft struct {
	Expression string   `json:"expression"`
	IsValid    bool     `json:"isValid"`
	Output     *float64 `json:"output"`
	Status     Status   `json:"status,omitempty"`
}

// Float returns a pointer to v, for building drafts.
func Float(v float64) *float64 { return &v }

// entry header: createdOn unix ms (8 bytes BE); payload: JSON draft.
func encodeEntry(d Draft, createdMs int64) (eventlog.AppendRecord, error) {
	payload, err := json.Marshal(d)
	if err != nil {
		return eventlog.AppendRecord{}, err
	}
	header := binary.BigEndian.AppendUint64(nil, uint64(createdMs))
	return eventlog.AppendRecord{
		Header:  header,
		Payload: payload,
		Index:   [][]byte{[]byte(d.Expression)},
	}, nil
}

func decodeEntry(it eventlog.Item) (Record, error) {
	if len(it.Header) < 8 {
		return Record{}, fmt.Errorf("logstore: entry %d: short header", it.Seq)
	}
	var d Draft
	if err := json.Unmarshal(it.Payload, &d); err != nil {
		return Record{}, fmt.Errorf("logstore: entry %d: %w", it.Seq, err)
	}
	ms := int64(binary.BigEndian.Uint64(it.Header[:8]))
	return Record{
		ID:         it.Seq,
		Expression: d.Expression,
		IsValid:    d.IsValid,
		Output:     d.Output,
		CreatedOn:  time.UnixMilli(ms).UTC(),
		Status:     d.Status,
	}, nil
}
