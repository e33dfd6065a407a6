package resource

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ids(c Collection) []string {
	out := make([]string, 0, len(c))
	for _, e := range c {
		id, _ := e.ID("id")
		out = append(out, id)
	}
	return out
}

func TestSortByNewest(t *testing.T) {
	base := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	ms := func(t time.Time) json.Number { return json.Number(itoa(t.UnixMilli())) }

	coll := Collection{
		{"id": "a", "createdAt": base.Format(time.RFC3339)},
		{"id": "b"},
		{"id": "c", "createdAt": base.Add(time.Hour).Format(time.RFC3339)},
		{"id": "d", "createdAt": base.Format(time.RFC3339)},
		{"id": "e", "createdAt": "not a date"},
		{"id": "f", "createdAt": ms(base.Add(2 * time.Hour))},
		{"id": "g", "createdAt": base.Format(time.RFC3339)},
	}
	SortByNewest(coll, "createdAt")

	assert.Equal(t, []string{"f", "c", "a", "d", "g", "b", "e"}, ids(coll))
}

func TestSortByNewest_stable(t *testing.T) {
	ts := "2021-01-01T00:00:00Z"
	coll := Collection{{"id": "1", "createdAt": ts}, {"id": "2", "createdAt": ts}, {"id": "3", "createdAt": ts}}
	for i := 0; i < 3; i++ {
		SortByNewest(coll, "createdAt")
		assert.Equal(t, []string{"1", "2", "3"}, ids(coll))
	}
}
