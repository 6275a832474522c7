package store

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/smartcontractkit/automation-registry/pkg/types"
)

// TaskStore is the authoritative arena of tasks. Ids are assigned
// sequentially from 1 and map directly to arena positions; tasks are never
// removed, so an id is never reused.
//
// TaskStore is not safe for concurrent use. The registry serializes writers
// and guards readers with its own lock.
type TaskStore struct {
	mode      types.KeyMode
	nextID    uint64
	tasks     []*types.Task
	byKey     map[types.TaskKey]int
	byAddress map[common.Address][]int
}

func New(mode types.KeyMode) *TaskStore {
	return &TaskStore{
		mode:      mode,
		nextID:    1,
		tasks:     make([]*types.Task, 0),
		byKey:     make(map[types.TaskKey]int),
		byAddress: make(map[common.Address][]int),
	}
}

func (s *TaskStore) Mode() types.KeyMode {
	return s.mode
}

// Len returns the number of tasks ever created.
func (s *TaskStore) Len() int {
	return len(s.tasks)
}

// NextID is the id the next inserted task will receive.
func (s *TaskStore) NextID() uint64 {
	return s.nextID
}

// NormalizeKey drops the owner component when the store is keyed by address.
func (s *TaskStore) NormalizeKey(key types.TaskKey) types.TaskKey {
	if s.mode == types.KeyedByAddress {
		return types.TaskKey{Address: key.Address}
	}

	return key
}

// Insert assigns the next id to the task and indexes it. The task pointer is
// retained by the store.
func (s *TaskStore) Insert(task *types.Task) (uint64, error) {
	key := task.Key(s.mode)

	if idx, ok := s.byKey[key]; ok {
		return 0, errors.Wrapf(types.ErrDuplicateTask, "key %s held by task %d", key, s.tasks[idx].ID)
	}

	task.ID = s.nextID
	s.nextID++

	s.index(task)

	return task.ID, nil
}

func (s *TaskStore) index(task *types.Task) {
	idx := len(s.tasks)

	s.tasks = append(s.tasks, task)
	s.byKey[task.Key(s.mode)] = idx
	s.byAddress[task.TaskAddress] = append(s.byAddress[task.TaskAddress], idx)
}

// Lookup resolves a key to its task. When keyed by owner, a miss on an address
// registered by a different owner is reported as ErrUnauthorized.
func (s *TaskStore) Lookup(key types.TaskKey) (*types.Task, error) {
	key = s.NormalizeKey(key)

	if idx, ok := s.byKey[key]; ok {
		return s.tasks[idx], nil
	}

	if s.mode == types.KeyedByOwner && len(s.byAddress[key.Address]) > 0 {
		return nil, errors.Wrapf(types.ErrUnauthorized, "%s has no task at %s", key.Owner.Hex(), key.Address.Hex())
	}

	return nil, errors.Wrapf(types.ErrTaskNotFound, "key %s", key)
}

// Get resolves a task by id.
func (s *TaskStore) Get(id uint64) (*types.Task, error) {
	if id == 0 || id > uint64(len(s.tasks)) {
		return nil, errors.Wrapf(types.ErrTaskNotFound, "id %d", id)
	}

	return s.tasks[id-1], nil
}

// All returns copies of every task in creation order.
func (s *TaskStore) All() []types.Task {
	out := make([]types.Task, len(s.tasks))
	for i, task := range s.tasks {
		out[i] = task.Clone()
	}

	return out
}

// OwnedBy returns copies of the owner's tasks in creation order.
func (s *TaskStore) OwnedBy(owner common.Address) []types.Task {
	out := make([]types.Task, 0)
	for _, task := range s.tasks {
		if task.Owner == owner {
			out = append(out, task.Clone())
		}
	}

	return out
}

// CountByState returns the number of tasks in each state.
func (s *TaskStore) CountByState() map[types.TaskState]int {
	counts := map[types.TaskState]int{
		types.Active:    0,
		types.Cancelled: 0,
	}

	for _, task := range s.tasks {
		counts[task.State]++
	}

	return counts
}
