package resource_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/resource"
	"github.com/trezcool/masomo-console/core/resource/mocks"
)

type recorder struct {
	mu    sync.Mutex
	notes []resource.Notification
}

func (r *recorder) Notify(n resource.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) last() resource.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		return resource.Notification{}
	}
	return r.notes[len(r.notes)-1]
}

// books returns n books, book 1 being the newest.
func books(n int) resource.Collection {
	c := make(resource.Collection, n)
	for i := range c {
		c[i] = resource.Entity{
			"book_id":   fmt.Sprint(i + 1),
			"title":     fmt.Sprintf("Book %d", i+1),
			"createdAt": fmt.Sprintf("2021-01-01T00:%02d:00Z", 59-i),
		}
	}
	return c
}

func newController(t *testing.T, def resource.Definition) (*resource.Controller, *mocks.MockGateway, *recorder) {
	ctrl := gomock.NewController(t)

	gw := mocks.NewMockGateway(ctrl)
	notes := &recorder{}
	return resource.NewController(def, gw, notes, nil), gw, notes
}

func TestController_Load(t *testing.T) {
	c, gw, _ := newController(t, resource.Books)
	ctx := context.Background()

	unsorted := resource.Collection{
		{"book_id": "old", "createdAt": "2020-01-01T00:00:00Z"},
		{"book_id": "new", "createdAt": "2021-01-01T00:00:00Z"},
	}
	gw.EXPECT().List(ctx, resource.Books).Return(unsorted, nil)

	items, err := c.Load(ctx)
	require.NoError(t, err)
	id, _ := items[0].ID("book_id")
	assert.Equal(t, "new", id)

	v := c.View()
	assert.False(t, v.Loading)
	assert.Empty(t, v.Err)
	assert.Equal(t, 2, v.TotalItems)
}

func TestController_Load_failureKeepsCollection(t *testing.T) {
	c, gw, _ := newController(t, resource.Books)
	ctx := context.Background()

	gomock.InOrder(
		gw.EXPECT().List(ctx, resource.Books).Return(books(3), nil),
		gw.EXPECT().List(ctx, resource.Books).Return(nil, core.NewGatewayError(core.KindNetwork, 0, "", errors.New("dial tcp: refused"))),
	)

	_, err := c.Load(ctx)
	require.NoError(t, err)
	_, err = c.Load(ctx)
	require.Error(t, err)
	assert.Equal(t, core.KindNetwork, core.KindOf(err))

	v := c.View()
	assert.Equal(t, 3, v.TotalItems)
	assert.Equal(t, core.MsgNetworkError, v.Err)
	assert.False(t, v.Loading)
}

func TestController_Load_idempotent(t *testing.T) {
	c, gw, _ := newController(t, resource.Books)
	ctx := context.Background()
	gw.EXPECT().List(ctx, resource.Books).Return(books(12), nil).Times(2)

	_, err := c.Load(ctx)
	require.NoError(t, err)
	first := c.View()
	_, err = c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, c.View())
}

func TestController_LoadWhere(t *testing.T) {
	c, gw, _ := newController(t, resource.Books)
	ctx := context.Background()
	params := map[string]string{"author": "Achebe"}

	gw.EXPECT().Search(ctx, resource.Books, params).Return(books(2), nil).Times(2)

	_, err := c.LoadWhere(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, params, c.View().Where)

	// refresh repeats the search
	_, err = c.Refresh(ctx)
	require.NoError(t, err)
}

func TestController_staleResponse(t *testing.T) {
	c, gw, _ := newController(t, resource.Books)
	ctx := context.Background()

	release := make(chan struct{})
	started := make(chan struct{})
	gomock.InOrder(
		gw.EXPECT().List(ctx, resource.Books).DoAndReturn(func(context.Context, resource.Definition) (resource.Collection, error) {
			close(started)
			<-release
			return resource.Collection{{"book_id": "stale"}}, nil
		}),
		gw.EXPECT().List(ctx, resource.Books).Return(resource.Collection{{"book_id": "fresh"}}, nil),
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Load(ctx)
	}()
	<-started
	_, err := c.Load(ctx)
	require.NoError(t, err)
	close(release)
	<-done

	v := c.View()
	require.Len(t, v.Items, 1)
	id, _ := v.Items[0].ID("book_id")
	assert.Equal(t, "fresh", id)
	assert.False(t, v.Loading)
}

func TestController_searchAndPaging(t *testing.T) {
	c, gw, _ := newController(t, resource.Books)
	ctx := context.Background()
	gw.EXPECT().List(ctx, resource.Books).Return(books(25), nil)
	_, err := c.Load(ctx)
	require.NoError(t, err)

	// 25 items, 10 per page
	v := c.View()
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, 3, v.TotalPages)
	assert.Equal(t, "1", v.Items[0]["book_id"])
	assert.Equal(t, "10", v.Items[9]["book_id"])

	c.SetPage(99)
	assert.Equal(t, 3, c.View().Page)

	// shrinking the page size keeps the page
	c.SetPageSize(5)
	v = c.View()
	assert.Equal(t, 3, v.Page)
	assert.Equal(t, 5, v.TotalPages)

	// growing it clamps
	c.SetPageSize(20)
	assert.Equal(t, 2, c.View().Page)

	c.SetPageSize(0)
	assert.Equal(t, resource.DefaultPageSize, c.View().PageSize)

	// a new search goes back to page 1
	c.SetPage(3)
	c.SetSearch("book 2")
	v = c.View()
	assert.Equal(t, 1, v.Page)
	assert.Equal(t, 7, v.TotalItems) // 2, 20..25

	c.NextPage()
	assert.Equal(t, 1, c.View().Page)
	c.PrevPage()
	assert.Equal(t, 1, c.View().Page)

	// a blank term is no search at all
	c.SetSearch("   ")
	v = c.View()
	assert.Equal(t, "", v.Search)
	assert.Equal(t, 25, v.TotalItems)
}

func TestController_View_isolatesRows(t *testing.T) {
	c, gw, _ := newController(t, resource.Books)
	ctx := context.Background()
	gw.EXPECT().List(ctx, resource.Books).Return(books(3), nil)
	_, err := c.Load(ctx)
	require.NoError(t, err)

	v := c.View()
	v.Items[0]["title"] = "scribbled"

	e, err := c.Find("1")
	require.NoError(t, err)
	assert.NotEqual(t, "scribbled", e["title"])
	assert.NotEqual(t, "scribbled", c.View().Items[0]["title"])
}

func TestController_Create(t *testing.T) {
	c, gw, notes := newController(t, resource.Books)
	ctx := context.Background()

	created := resource.Entity{"book_id": "99", "title": "Arrow of God", "createdAt": "2022-01-01T00:00:00Z"}
	gomock.InOrder(
		gw.EXPECT().Create(ctx, resource.Books, resource.Entity{"title": "Arrow of God"}).Return("book added", nil),
		gw.EXPECT().List(ctx, resource.Books).Return(append(books(2), created), nil),
	)

	require.NoError(t, c.OpenCreate(nil))
	require.NoError(t, c.SetField("title", "Arrow of God"))
	_, err := c.SubmitDialog(ctx, nil)
	require.NoError(t, err)

	// the new entity shows up without a manual refresh
	v := c.View()
	assert.Equal(t, resource.Closed{}, v.Dialog)
	assert.Equal(t, "99", v.Items[0]["book_id"])
	assert.Equal(t, resource.Notification{Level: resource.LevelInfo, Resource: "book", Message: "book added"}, notes.last())
}

func TestController_Create_failureKeepsDraft(t *testing.T) {
	c, gw, notes := newController(t, resource.Books)
	ctx := context.Background()

	gw.EXPECT().Create(ctx, resource.Books, gomock.Any()).
		Return("", core.NewGatewayError(core.KindValidation, 400, "author is required", nil))

	require.NoError(t, c.OpenCreate(resource.Entity{"title": "Anthills"}))
	_, err := c.SubmitDialog(ctx, resource.Entity{"isbn": "123"})
	require.Error(t, err)
	assert.Equal(t, core.KindValidation, core.KindOf(err))

	v := c.View()
	assert.Equal(t, resource.Creating{Draft: resource.Entity{"title": "Anthills", "isbn": "123"}}, v.Dialog)
	assert.Equal(t, "author is required", v.DialogMessage)
	assert.Equal(t, resource.LevelError, notes.last().Level)
}

func TestController_Update(t *testing.T) {
	c, gw, _ := newController(t, resource.Books)
	ctx := context.Background()

	gomock.InOrder(
		gw.EXPECT().List(ctx, resource.Books).Return(books(3), nil),
		gw.EXPECT().Update(ctx, resource.Books, "2", resource.Entity{"title": "Renamed"}).
			Return("", core.NewGatewayError(core.KindServer, 500, "internal error", nil)),
		gw.EXPECT().Update(ctx, resource.Books, "2", resource.Entity{"title": "Renamed", "author": "Ngugi"}).Return("", nil),
		gw.EXPECT().List(ctx, resource.Books).Return(books(3), nil),
	)
	_, err := c.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, c.OpenEdit("2"))
	assert.Error(t, c.OpenEdit("3"))

	_, err = c.SubmitDialog(ctx, resource.Entity{"title": "Renamed"})
	require.Error(t, err)
	v := c.View()
	st, ok := v.Dialog.(resource.Editing)
	require.True(t, ok)
	assert.Equal(t, resource.Entity{"title": "Renamed"}, st.Patch)
	assert.Equal(t, "Book 2", st.Entity["title"])
	assert.Equal(t, "internal error", v.DialogMessage)

	rec, err := c.SubmitDialog(ctx, resource.Entity{"author": "Ngugi"})
	require.NoError(t, err)
	assert.Equal(t, resource.MutationUpdate, rec.Kind)
	assert.Equal(t, "Book 2", rec.Previous["title"])
	assert.Equal(t, resource.Closed{}, c.View().Dialog)
}

func TestController_OpenEdit_unknown(t *testing.T) {
	c, _, _ := newController(t, resource.Books)
	err := c.OpenEdit("404")
	assert.Equal(t, resource.ErrEntityNotFound, errors.Cause(err))
	assert.Equal(t, resource.Closed{}, c.View().Dialog)
}

func TestController_SubmitDialog_closed(t *testing.T) {
	c, _, _ := newController(t, resource.Books)
	_, err := c.SubmitDialog(context.Background(), nil)
	assert.Equal(t, resource.ErrDialogClosed, err)
	assert.Equal(t, resource.ErrDialogClosed, c.SetField("title", "x"))
}

func TestController_Delete(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{name: "success"},
		{name: "failure still refetches", err: core.NewGatewayError(core.KindNotFound, 404, "book not found", nil), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, gw, notes := newController(t, resource.Books)
			ctx := context.Background()

			gomock.InOrder(
				gw.EXPECT().List(ctx, resource.Books).Return(books(3), nil),
				gw.EXPECT().Delete(ctx, resource.Books, "2").Return("", tt.err),
				gw.EXPECT().List(ctx, resource.Books).Return(books(2), nil),
			)
			_, err := c.Load(ctx)
			require.NoError(t, err)

			_, err = c.Delete(ctx, "2")
			if tt.wantErr {
				assert.Error(t, err)
				assert.Equal(t, "book not found", notes.last().Message)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, "book deleted", notes.last().Message)
			}
			assert.Equal(t, 2, c.View().TotalItems)
		})
	}
}

func TestController_Delete_repaginates(t *testing.T) {
	c, gw, _ := newController(t, resource.Books)
	ctx := context.Background()

	gomock.InOrder(
		gw.EXPECT().List(ctx, resource.Books).Return(books(21), nil),
		gw.EXPECT().Delete(ctx, resource.Books, "21").Return("", nil),
		gw.EXPECT().List(ctx, resource.Books).Return(books(20), nil),
	)
	_, err := c.Load(ctx)
	require.NoError(t, err)

	// deleting the only item of the last page
	c.SetPage(3)
	v := c.View()
	require.Equal(t, 3, v.Page)
	require.Len(t, v.Items, 1)

	_, err = c.Delete(ctx, "21")
	require.NoError(t, err)

	v = c.View()
	assert.Equal(t, 2, v.Page)
	assert.Equal(t, 2, v.TotalPages)
	assert.Len(t, v.Items, 10)
}

func TestController_Toggle(t *testing.T) {
	users := resource.Collection{
		{"user_id": "u1", "name": "Amina", "blocked": false, "createdAt": "2021-01-01T00:00:00Z"},
	}

	t.Run("rollback on failure", func(t *testing.T) {
		c, gw, notes := newController(t, resource.Users)
		ctx := context.Background()

		gw.EXPECT().List(ctx, resource.Users).Return(users.Clone(), nil)
		gw.EXPECT().Update(ctx, resource.Users, "u1", resource.Entity{"blocked": true}).
			DoAndReturn(func(context.Context, resource.Definition, string, resource.Entity) (string, error) {
				// the flip is visible while the call is in flight
				assert.Equal(t, true, c.Store().Items()[0]["blocked"])
				return "", core.NewGatewayError(core.KindNetwork, 0, "", errors.New("timeout"))
			})
		_, err := c.Load(ctx)
		require.NoError(t, err)

		// blocked stays false when the gateway refuses
		_, err = c.Toggle(ctx, "u1", "blocked")
		require.Error(t, err)
		assert.Equal(t, false, c.View().Items[0]["blocked"])
		assert.Equal(t, core.MsgNetworkError, notes.last().Message)
	})

	t.Run("success without refetch", func(t *testing.T) {
		c, gw, _ := newController(t, resource.Users)
		ctx := context.Background()

		gw.EXPECT().List(ctx, resource.Users).Return(users.Clone(), nil).Times(1)
		gw.EXPECT().Update(ctx, resource.Users, "u1", resource.Entity{"blocked": true}).Return("user updated", nil)
		_, err := c.Load(ctx)
		require.NoError(t, err)

		rec, err := c.Toggle(ctx, "u1", "blocked")
		require.NoError(t, err)
		assert.Equal(t, resource.MutationToggle, rec.Kind)
		assert.Equal(t, true, c.View().Items[0]["blocked"])
	})

	t.Run("undeclared flag", func(t *testing.T) {
		c, _, _ := newController(t, resource.Users)
		_, err := c.Toggle(context.Background(), "u1", "name")
		assert.Equal(t, resource.ErrNotToggleable, errors.Cause(err))
	})
}
