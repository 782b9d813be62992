// Package ordering decides how a user's task list is arranged after each
// mutation. Exactly one policy is active per deployment: either completed
// tasks automatically sink below incomplete ones, or the user arranges the
// list by hand. The two are behaviorally incompatible (an auto-sort would
// undo a manual drag on the next mutation), so they are never combined.
package ordering

import (
	"errors"
	"fmt"

	"taskmate/backend/internal/models"
)

type PolicyName string

const (
	PolicyAutoSort PolicyName = "auto_sort"
	PolicyManual   PolicyName = "manual"
)

var (
	// ErrManualReorderDisabled is returned by Move under the auto-sort
	// policy, where drag-and-drop order has no meaning.
	ErrManualReorderDisabled = errors.New("manual reorder is disabled")
	ErrIndexOutOfRange       = errors.New("reorder index out of range")
)

// Policy computes the new arrangement of a task list after a mutation. All
// methods are pure: they return a fresh slice and never modify their input.
type Policy interface {
	Name() PolicyName

	// Place inserts a newly created task into the list.
	Place(list []models.Task, task models.Task) []models.Task

	// Rebalance re-derives the list order after a completion toggle.
	Rebalance(list []models.Task) []models.Task

	// Move relocates the element at src to dst. The bool reports whether
	// anything actually moved; src == dst is a valid no-op.
	Move(list []models.Task, src, dst int) ([]models.Task, bool, error)
}

func ForName(name string) (Policy, error) {
	switch PolicyName(name) {
	case PolicyAutoSort:
		return AutoSort{}, nil
	case PolicyManual:
		return Manual{}, nil
	default:
		return nil, fmt.Errorf("unknown ordering policy %q", name)
	}
}

// AutoSort keeps incomplete tasks before completed ones. Tasks sharing a
// completed-state keep their relative order from the prior list; there is no
// secondary sort key.
type AutoSort struct{}

func (AutoSort) Name() PolicyName { return PolicyAutoSort }

func (AutoSort) Place(list []models.Task, task models.Task) []models.Task {
	out := make([]models.Task, 0, len(list)+1)
	if task.Completed {
		out = append(out, list...)
		return append(out, task)
	}

	// An incomplete task goes at the end of the incomplete group, just
	// before the first completed task.
	at := len(list)
	for i, t := range list {
		if t.Completed {
			at = i
			break
		}
	}
	out = append(out, list[:at]...)
	out = append(out, task)
	return append(out, list[at:]...)
}

func (AutoSort) Rebalance(list []models.Task) []models.Task {
	out := make([]models.Task, 0, len(list))
	for _, t := range list {
		if !t.Completed {
			out = append(out, t)
		}
	}
	for _, t := range list {
		if t.Completed {
			out = append(out, t)
		}
	}
	return out
}

func (AutoSort) Move(list []models.Task, src, dst int) ([]models.Task, bool, error) {
	return append([]models.Task(nil), list...), false, ErrManualReorderDisabled
}

// Manual preserves whatever order the user last arranged. Creation appends,
// toggling completion leaves the task in place, and Move splices an element
// from one index to another.
type Manual struct{}

func (Manual) Name() PolicyName { return PolicyManual }

func (Manual) Place(list []models.Task, task models.Task) []models.Task {
	out := make([]models.Task, 0, len(list)+1)
	out = append(out, list...)
	return append(out, task)
}

func (Manual) Rebalance(list []models.Task) []models.Task {
	return append([]models.Task(nil), list...)
}

func (Manual) Move(list []models.Task, src, dst int) ([]models.Task, bool, error) {
	out := append([]models.Task(nil), list...)
	if src < 0 || src >= len(out) || dst < 0 || dst >= len(out) {
		return out, false, ErrIndexOutOfRange
	}
	if src == dst {
		return out, false, nil
	}

	moved := out[src]
	out = append(out[:src], out[src+1:]...)
	out = append(out[:dst], append([]models.Task{moved}, out[dst:]...)...)
	return out, true, nil
}
