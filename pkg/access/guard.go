// Package access holds the authorization checks shared by every mutating
// registry operation. Checks never mutate the task.
package access

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"github.com/smartcontractkit/automation-registry/pkg/types"
)

// RequireOwner fails with ErrUnauthorized unless caller owns the task.
func RequireOwner(task *types.Task, caller common.Address) error {
	if task.Owner != caller {
		return errors.Wrapf(types.ErrUnauthorized, "%s does not own task %d", caller.Hex(), task.ID)
	}

	return nil
}

// RequireActive fails with ErrTaskCancelled unless the task is Active.
func RequireActive(task *types.Task) error {
	if task.State != types.Active {
		return errors.Wrapf(types.ErrTaskCancelled, "task %d is %s", task.ID, task.State)
	}

	return nil
}

// RequireOwnerActive composes RequireOwner and RequireActive in that order.
func RequireOwnerActive(task *types.Task, caller common.Address) error {
	if err := RequireOwner(task, caller); err != nil {
		return err
	}

	return RequireActive(task)
}

// KeeperSet is the set of accounts allowed to settle executions on behalf of
// task owners.
type KeeperSet map[common.Address]struct{}

func NewKeeperSet(keepers ...common.Address) KeeperSet {
	set := make(KeeperSet, len(keepers))
	for _, k := range keepers {
		set[k] = struct{}{}
	}

	return set
}

func (s KeeperSet) Contains(addr common.Address) bool {
	_, ok := s[addr]
	return ok
}

// RequireSettler accepts the task owner or any registered keeper.
func RequireSettler(task *types.Task, caller common.Address, keepers KeeperSet) error {
	if task.Owner == caller || keepers.Contains(caller) {
		return nil
	}

	return errors.Wrapf(types.ErrUnauthorized, "%s cannot settle task %d", caller.Hex(), task.ID)
}
