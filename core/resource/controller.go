package resource

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-console/core"
)

var ErrDialogClosed = errors.New("no dialog is open")

// View is what a rendering layer draws for one resource screen.
type View struct {
	PageView
	Resource      string
	Search        string
	Where         map[string]string
	Loading       bool
	Err           string // message of the last failed load
	Dialog        DialogState
	DialogMessage string
}

// Controller keeps a client-held collection of one resource consistent with the gateway
// under search, pagination, sorting and optimistic mutation.
// It is safe for concurrent use; gateway calls run without holding its lock.
type Controller struct {
	def      Definition
	gw       Gateway
	notifier Notifier
	log      core.Logger
	store    *Store

	mu     sync.Mutex
	search SearchState
	page   PageState
	where  map[string]string
	dialog Dialog
}

// NewController returns a Controller for def. notifier and logger may be nil.
func NewController(def Definition, gw Gateway, notifier Notifier, logger core.Logger) *Controller {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Controller{
		def:      def,
		gw:       gw,
		notifier: notifier,
		log:      logger,
		store:    NewStore(),
		search:   SearchState{Fields: def.SearchFields},
		page:     PageState{Page: 1, PageSize: def.pageSize()},
	}
}

func (c *Controller) Definition() Definition { return c.def }

func (c *Controller) Store() *Store { return c.store }

// Load fetches the full collection, sorts it newest first and stores it.
// On failure the previous collection is kept and the error is recorded in the store.
func (c *Controller) Load(ctx context.Context) (Collection, error) {
	c.mu.Lock()
	c.where = nil
	c.mu.Unlock()
	return c.fetch(ctx, nil)
}

// LoadWhere is Load against the gateway's search endpoint. Empty params is a plain Load.
// Later refetches repeat the same query.
func (c *Controller) LoadWhere(ctx context.Context, params map[string]string) (Collection, error) {
	if len(params) == 0 {
		return c.Load(ctx)
	}
	where := make(map[string]string, len(params))
	for k, v := range params {
		where[k] = v
	}
	c.mu.Lock()
	c.where = where
	c.mu.Unlock()
	return c.fetch(ctx, where)
}

// Refresh repeats the last load.
func (c *Controller) Refresh(ctx context.Context) (Collection, error) {
	c.mu.Lock()
	where := c.where
	c.mu.Unlock()
	return c.fetch(ctx, where)
}

func (c *Controller) fetch(ctx context.Context, where map[string]string) (Collection, error) {
	gen := c.store.Begin()

	var (
		items Collection
		err   error
	)
	if where == nil {
		items, err = c.gw.List(ctx, c.def)
	} else {
		items, err = c.gw.Search(ctx, c.def, where)
	}
	if err != nil {
		err = errors.Wrapf(err, "loading %s", c.def.Name)
		c.store.Commit(gen, nil, err)
		c.log.Error(err.Error(), err, map[string]interface{}{"resource": c.def.Name, "where": where})
		return nil, err
	}

	SortByNewest(items, c.def.sortField())
	if !c.store.Commit(gen, items, nil) {
		c.log.Debug(fmt.Sprintf("discarding stale %s response", c.def.Name), map[string]interface{}{"generation": gen})
	}
	return items, nil
}

// SetSearch changes the search term and goes back to the first page.
func (c *Controller) SetSearch(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search.Term = term
	c.page.Page = 1
}

// SetPage moves to page n, clamped to the pages available.
func (c *Controller) SetPage(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page.Page = n
	c.viewLocked()
}

// SetPageSize changes the page size, keeping the current page when it still exists.
// A non-positive size restores the resource's default.
func (c *Controller) SetPageSize(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 {
		n = c.def.pageSize()
	}
	c.page.PageSize = n
	c.viewLocked()
}

func (c *Controller) NextPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page.Page++
	c.viewLocked()
}

func (c *Controller) PrevPage() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.page.Page--
	c.viewLocked()
}

// View computes the current page of the filtered collection.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	snap := c.store.Snapshot()
	items := snap.Items
	var search string
	if c.search.Active() {
		items = Filter(items, c.search.Term, c.search.Fields)
		search = c.search.Term
	}
	pv := Paginate(items, c.page)
	pv.Items = pv.Items.Clone() // callers may edit rows freely
	c.page.Page = pv.Page

	var where map[string]string
	if c.where != nil {
		where = make(map[string]string, len(c.where))
		for k, v := range c.where {
			where[k] = v
		}
	}
	return View{
		PageView:      pv,
		Resource:      c.def.Name,
		Search:        search,
		Where:         where,
		Loading:       snap.Loading,
		Err:           core.UserMessage(snap.Err),
		Dialog:        c.dialog.State(),
		DialogMessage: c.dialog.Message(),
	}
}

// Find returns a copy of the stored entity identified by id.
func (c *Controller) Find(id string) (Entity, error) {
	items := c.store.Items()
	idx := items.IndexOf(c.def.IDField, id)
	if idx < 0 {
		return nil, errors.Wrapf(ErrEntityNotFound, "%s %s", c.def.Name, id)
	}
	return items[idx].Clone(), nil
}

// OpenCreate opens the create dialog on draft.
func (c *Controller) OpenCreate(draft Entity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialog.OpenCreate(draft)
}

// OpenEdit opens the edit dialog on a snapshot of the stored entity id.
func (c *Controller) OpenEdit(id string) error {
	e, err := c.Find(id)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialog.OpenEdit(e)
}

// SetField records a field of the open dialog.
func (c *Controller) SetField(field string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.dialog.IsOpen() {
		return ErrDialogClosed
	}
	c.dialog.Set(field, value)
	return nil
}

// CancelDialog closes the dialog without side effects.
func (c *Controller) CancelDialog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialog.Cancel()
}

// SubmitDialog submits the open dialog: a Create of its draft, or an Update of the edited entity.
// fields are merged over what the dialog already holds.
func (c *Controller) SubmitDialog(ctx context.Context, fields Entity) (MutationRecord, error) {
	c.mu.Lock()
	state := c.dialog.State()
	c.mu.Unlock()

	switch st := state.(type) {
	case Creating:
		return c.Create(ctx, merge(st.Draft, fields))
	case Editing:
		id, ok := st.Entity.ID(c.def.IDField)
		if !ok {
			return MutationRecord{}, ErrNoIdentifier
		}
		return c.Update(ctx, id, merge(st.Patch, fields))
	default:
		return MutationRecord{}, ErrDialogClosed
	}
}

// Create submits draft without its identifier. On success the create dialog closes and the
// collection is refetched; on failure the dialog stays open with the draft and the gateway's message.
func (c *Controller) Create(ctx context.Context, draft Entity) (MutationRecord, error) {
	fields := draft.Clone()
	if fields == nil {
		fields = Entity{}
	}
	delete(fields, c.def.IDField)

	msg, err := c.gw.Create(ctx, c.def, fields)
	if err != nil {
		return MutationRecord{}, c.failed(MutationCreate, "", fields, err)
	}

	c.mu.Lock()
	if _, ok := c.dialog.State().(Creating); ok {
		c.dialog.close()
	}
	c.mu.Unlock()

	c.succeeded(msg, fmt.Sprintf("%s created", c.def.Name))
	c.refetch(ctx)
	return MutationRecord{Kind: MutationCreate}, nil
}

// Update submits patch for the entity id. Success closes the edit dialog and refetches;
// failure keeps the dialog open with the attempted patch.
func (c *Controller) Update(ctx context.Context, id string, patch Entity) (MutationRecord, error) {
	rec := MutationRecord{Kind: MutationUpdate, Target: id}
	if prev, err := c.Find(id); err == nil {
		rec.Previous = prev
	}

	fields := patch.Clone()
	if fields == nil {
		fields = Entity{}
	}
	delete(fields, c.def.IDField)

	msg, err := c.gw.Update(ctx, c.def, id, fields)
	if err != nil {
		return MutationRecord{}, c.failed(MutationUpdate, id, fields, err)
	}

	c.mu.Lock()
	if st, ok := c.dialog.State().(Editing); ok {
		if eid, _ := st.Entity.ID(c.def.IDField); eid == id {
			c.dialog.close()
		}
	}
	c.mu.Unlock()

	c.succeeded(msg, fmt.Sprintf("%s updated", c.def.Name))
	c.refetch(ctx)
	return rec, nil
}

// Delete removes the entity id. Asking for confirmation is up to the caller.
// The collection is refetched whether the call succeeds or not.
func (c *Controller) Delete(ctx context.Context, id string) (MutationRecord, error) {
	rec := MutationRecord{Kind: MutationDelete, Target: id}
	if prev, err := c.Find(id); err == nil {
		rec.Previous = prev
	}

	msg, err := c.gw.Delete(ctx, c.def, id)
	if err != nil {
		err = c.failed(MutationDelete, id, nil, err)
		c.refetch(ctx)
		return MutationRecord{}, err
	}

	c.succeeded(msg, fmt.Sprintf("%s deleted", c.def.Name))
	c.refetch(ctx)
	return rec, nil
}

// Toggle flips flag on the entity id right away, then persists it with a single-field update.
// The flip is undone if the gateway rejects it. Nothing is refetched.
func (c *Controller) Toggle(ctx context.Context, id, flag string) (MutationRecord, error) {
	if !c.def.CanToggle(flag) {
		return MutationRecord{}, errors.Wrapf(ErrNotToggleable, "%s.%s", c.def.Name, flag)
	}

	cmd := ToggleCommand{Store: c.store, IDField: c.def.IDField, ID: id, Flag: flag}
	rec, undo, err := cmd.Apply()
	if err != nil {
		return MutationRecord{}, errors.Wrapf(err, "toggling %s %s", c.def.Name, id)
	}

	value := rec.toggledValue(flag)
	msg, err := c.gw.Update(ctx, c.def, id, Entity{flag: value})
	if err != nil {
		undo()
		return MutationRecord{}, c.failed(MutationToggle, id, nil, err)
	}

	c.succeeded(msg, fmt.Sprintf("%s %s set to %t", c.def.Name, flag, value))
	return rec, nil
}

// failed surfaces a mutation failure: to the dialog for creates and updates, then to the notifier.
func (c *Controller) failed(kind MutationKind, id string, fields Entity, err error) error {
	text := core.UserMessage(err)

	c.mu.Lock()
	switch st := c.dialog.State().(type) {
	case Creating:
		if kind == MutationCreate {
			c.dialog.fail(fields, text)
		}
	case Editing:
		if eid, _ := st.Entity.ID(c.def.IDField); kind == MutationUpdate && eid == id {
			c.dialog.fail(fields, text)
		}
	}
	c.mu.Unlock()

	c.notifier.Notify(Notification{Level: LevelError, Resource: c.def.Name, Message: text})
	err = errors.Wrapf(err, "%s %s", kind, c.def.Name)
	c.log.Error(err.Error(), err, map[string]interface{}{"resource": c.def.Name, "id": id, "kind": core.KindOf(err).String()})
	return err
}

func (c *Controller) succeeded(msg, fallback string) {
	if msg == "" {
		msg = fallback
	}
	c.notifier.Notify(Notification{Level: LevelInfo, Resource: c.def.Name, Message: msg})
}

// refetch reloads after a mutation. A failed reload is already recorded in the store.
func (c *Controller) refetch(ctx context.Context) {
	_, _ = c.Refresh(ctx)
}

func merge(base, over Entity) Entity {
	out := base.Clone()
	if out == nil {
		out = Entity{}
	}
	for k, v := range over {
		out[k] = v
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}
