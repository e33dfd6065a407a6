package resource

import "github.com/pkg/errors"

var ErrDialogOpen = errors.New("a dialog is already open")

// DialogState is one of Closed, Creating or Editing.
type DialogState interface {
	dialogState()
}

type (
	Closed struct{}

	// Creating holds the draft of an entity about to be created.
	Creating struct {
		Draft Entity
	}

	// Editing holds a snapshot of the entity under edit and the last attempted patch.
	Editing struct {
		Entity Entity
		Patch  Entity
	}
)

func (Closed) dialogState()   {}
func (Creating) dialogState() {}
func (Editing) dialogState()  {}

// Dialog is the create/edit modal of a resource screen.
// It is not safe for concurrent use on its own; Controller guards it.
type Dialog struct {
	state   DialogState
	message string
}

// State returns the current state. A zero Dialog is Closed.
func (d *Dialog) State() DialogState {
	if d.state == nil {
		return Closed{}
	}
	return d.state
}

// Message is the last failure surfaced while the dialog was open.
func (d *Dialog) Message() string {
	return d.message
}

func (d *Dialog) IsOpen() bool {
	_, closed := d.State().(Closed)
	return !closed
}

// OpenCreate opens the dialog on a fresh draft.
func (d *Dialog) OpenCreate(draft Entity) error {
	if d.IsOpen() {
		return ErrDialogOpen
	}
	if draft == nil {
		draft = Entity{}
	}
	d.state = Creating{Draft: draft.Clone()}
	d.message = ""
	return nil
}

// OpenEdit opens the dialog on a deep copy of e, so later store updates do not leak into it.
func (d *Dialog) OpenEdit(e Entity) error {
	if d.IsOpen() {
		return ErrDialogOpen
	}
	d.state = Editing{Entity: e.Clone(), Patch: Entity{}}
	d.message = ""
	return nil
}

// Set records one field of the draft (Creating) or patch (Editing).
func (d *Dialog) Set(field string, value interface{}) {
	switch st := d.State().(type) {
	case Creating:
		draft := st.Draft.Clone()
		draft[field] = value
		d.state = Creating{Draft: draft}
	case Editing:
		patch := st.Patch.Clone()
		if patch == nil {
			patch = Entity{}
		}
		patch[field] = value
		d.state = Editing{Entity: st.Entity, Patch: patch}
	}
}

// Cancel closes the dialog without side effects. Cancelling a closed dialog does nothing.
func (d *Dialog) Cancel() {
	d.close()
}

func (d *Dialog) close() {
	d.state = Closed{}
	d.message = ""
}

// fail keeps the dialog open with the attempted fields and surfaces msg.
func (d *Dialog) fail(fields Entity, msg string) {
	switch st := d.State().(type) {
	case Creating:
		d.state = Creating{Draft: fields.Clone()}
	case Editing:
		d.state = Editing{Entity: st.Entity, Patch: fields.Clone()}
	default:
		return
	}
	d.message = msg
}
