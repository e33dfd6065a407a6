package resource

import "github.com/pkg/errors"

var (
	ErrEntityNotFound = errors.New("entity not found")
	ErrNotToggleable  = errors.New("field is not toggleable")
	ErrNotBoolean     = errors.New("field does not hold a boolean")
	ErrNoIdentifier   = errors.New("entity has no identifier")
)

// MutationKind names what a mutation does.
type MutationKind int

const (
	MutationCreate MutationKind = iota
	MutationUpdate
	MutationDelete
	MutationToggle
)

func (k MutationKind) String() string {
	switch k {
	case MutationCreate:
		return "create"
	case MutationUpdate:
		return "update"
	case MutationDelete:
		return "delete"
	case MutationToggle:
		return "toggle"
	default:
		return "unknown"
	}
}

// MutationRecord describes an applied mutation. Previous is the entity as it was before.
type MutationRecord struct {
	Kind     MutationKind
	Target   string
	Previous Entity
}

// ToggleCommand flips a boolean field of one entity held in a Store.
type ToggleCommand struct {
	Store   *Store
	IDField string
	ID      string
	Flag    string
}

// Apply flips the flag in the store and returns the record along with an undo
// that puts the previous value back. The undo is safe to call more than once.
func (cmd ToggleCommand) Apply() (MutationRecord, func(), error) {
	prev, err := cmd.Store.modify(cmd.IDField, cmd.ID, func(e Entity) (Entity, error) {
		cur, ok := e.Bool(cmd.Flag)
		if !ok {
			return nil, errors.Wrap(ErrNotBoolean, cmd.Flag)
		}
		e[cmd.Flag] = !cur
		return e, nil
	})
	if err != nil {
		return MutationRecord{}, nil, err
	}

	rec := MutationRecord{Kind: MutationToggle, Target: cmd.ID, Previous: prev}
	undo := func() {
		_, _ = cmd.Store.modify(cmd.IDField, cmd.ID, func(e Entity) (Entity, error) {
			if v, had := prev[cmd.Flag]; had {
				e[cmd.Flag] = v
			} else {
				delete(e, cmd.Flag)
			}
			return e, nil
		})
	}
	return rec, undo, nil
}

// toggledValue is the flag value the command set.
func (rec MutationRecord) toggledValue(flag string) bool {
	cur, _ := rec.Previous.Bool(flag)
	return !cur
}
