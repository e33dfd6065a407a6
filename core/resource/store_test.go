package resource

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestStore_Commit(t *testing.T) {
	s := NewStore()
	assert.False(t, s.Loading())

	gen := s.Begin()
	assert.True(t, s.Loading())
	assert.True(t, s.Commit(gen, Collection{{"id": "1"}}, nil))
	assert.False(t, s.Loading())
	assert.Len(t, s.Items(), 1)

	// a failed load keeps the previous collection
	gen = s.Begin()
	boom := errors.New("boom")
	assert.True(t, s.Commit(gen, nil, boom))
	snap := s.Snapshot()
	assert.Len(t, snap.Items, 1)
	assert.Equal(t, boom, snap.Err)
	assert.False(t, snap.Loading)

	// a successful load clears the error
	gen = s.Begin()
	s.Commit(gen, Collection{}, nil)
	assert.NoError(t, s.Err())
	assert.Len(t, s.Items(), 0)
}

func TestStore_staleResponse(t *testing.T) {
	s := NewStore()
	older := s.Begin()
	newer := s.Begin()

	assert.True(t, s.Commit(newer, Collection{{"id": "fresh"}}, nil))
	assert.True(t, s.Loading())
	assert.False(t, s.Commit(older, Collection{{"id": "stale"}}, nil))
	assert.False(t, s.Loading())

	id, _ := s.Items()[0].ID("id")
	assert.Equal(t, "fresh", id)
}

func TestToggleCommand_Apply(t *testing.T) {
	s := NewStore()
	s.Commit(s.Begin(), Collection{{"user_id": "u1", "blocked": false, "name": "Ana"}}, nil)
	before := s.Items()

	cmd := ToggleCommand{Store: s, IDField: "user_id", ID: "u1", Flag: "blocked"}
	rec, undo, err := cmd.Apply()
	assert.NoError(t, err)
	assert.Equal(t, MutationToggle, rec.Kind)
	assert.Equal(t, "u1", rec.Target)
	assert.Equal(t, false, rec.Previous["blocked"])
	assert.Equal(t, true, s.Items()[0]["blocked"])
	assert.Equal(t, false, before[0]["blocked"], "earlier reads are not mutated")

	undo()
	assert.Equal(t, false, s.Items()[0]["blocked"])
	undo()
	assert.Equal(t, false, s.Items()[0]["blocked"])
}

func TestToggleCommand_Apply_errors(t *testing.T) {
	s := NewStore()
	s.Commit(s.Begin(), Collection{{"user_id": "u1", "blocked": "yes"}}, nil)

	_, _, err := ToggleCommand{Store: s, IDField: "user_id", ID: "nope", Flag: "blocked"}.Apply()
	assert.Equal(t, ErrEntityNotFound, errors.Cause(err))

	_, _, err = ToggleCommand{Store: s, IDField: "user_id", ID: "u1", Flag: "blocked"}.Apply()
	assert.Equal(t, ErrNotBoolean, errors.Cause(err))
	assert.Equal(t, "yes", s.Items()[0]["blocked"])
}

func TestToggleCommand_missingFlag(t *testing.T) {
	s := NewStore()
	s.Commit(s.Begin(), Collection{{"course_id": "c1"}}, nil)

	_, undo, err := ToggleCommand{Store: s, IDField: "course_id", ID: "c1", Flag: "published"}.Apply()
	assert.NoError(t, err)
	assert.Equal(t, true, s.Items()[0]["published"])

	undo()
	_, has := s.Items()[0]["published"]
	assert.False(t, has)
}
