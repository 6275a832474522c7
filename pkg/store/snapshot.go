package store

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"github.com/smartcontractkit/automation-registry/pkg/ledger"
	"github.com/smartcontractkit/automation-registry/pkg/types"
)

var (
	ErrEncoding = fmt.Errorf("encoding/decoding failure")
	ErrCorrupt  = fmt.Errorf("corrupt snapshot")
)

// Snapshot is the persisted state of a store: every task plus the id counter.
type Snapshot struct {
	KeyMode types.KeyMode `json:"keyMode"`
	NextID  uint64        `json:"nextID"`
	Tasks   []types.Task  `json:"tasks"`
}

// Snapshot returns a deep copy of the store state.
func (s *TaskStore) Snapshot() Snapshot {
	return Snapshot{
		KeyMode: s.mode,
		NextID:  s.nextID,
		Tasks:   s.All(),
	}
}

// Restore rebuilds a store from a snapshot after checking id continuity, key
// uniqueness, known enum values and the ledger invariants of every task.
func Restore(snap Snapshot) (*TaskStore, error) {
	s := New(snap.KeyMode)

	if snap.NextID != uint64(len(snap.Tasks))+1 {
		return nil, errors.Wrapf(ErrCorrupt, "next id %d with %d tasks", snap.NextID, len(snap.Tasks))
	}

	for i := range snap.Tasks {
		task := snap.Tasks[i].Clone()

		if task.ID != uint64(i)+1 {
			return nil, errors.Wrapf(ErrCorrupt, "task at position %d has id %d", i, task.ID)
		}

		if _, ok := s.byKey[task.Key(s.mode)]; ok {
			return nil, errors.Wrapf(ErrCorrupt, "duplicate key %s", task.Key(s.mode))
		}

		if err := verifyEnums(&task); err != nil {
			return nil, err
		}

		if err := ledger.Verify(&task); err != nil {
			return nil, errors.Wrap(ErrCorrupt, err.Error())
		}

		s.index(&task)
	}

	s.nextID = snap.NextID

	return s, nil
}

func verifyEnums(task *types.Task) error {
	switch task.State {
	case types.Active, types.Cancelled:
	default:
		return errors.Wrapf(ErrCorrupt, "task %d has unknown state %d", task.ID, uint8(task.State))
	}

	for i, rec := range task.ExecList {
		switch rec.Kind {
		case types.ManualSettlement, types.KeeperSettlement:
		default:
			return errors.Wrapf(ErrCorrupt, "task %d exec record %d has unknown kind %d", task.ID, i, uint8(rec.Kind))
		}
	}

	return nil
}

// Encode applies JSON encoding of a snapshot to bytes.
func (snap Snapshot) Encode() ([]byte, error) {
	b, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode snapshot: %s", ErrEncoding, err.Error())
	}

	return b, nil
}

// DecodeSnapshot uses JSON encoding to decode bytes to a snapshot.
func DecodeSnapshot(encoded []byte) (Snapshot, error) {
	var snap Snapshot

	if err := json.Unmarshal(encoded, &snap); err != nil {
		return snap, fmt.Errorf("%w: failed to decode snapshot: %s", ErrEncoding, err.Error())
	}

	return snap, nil
}
