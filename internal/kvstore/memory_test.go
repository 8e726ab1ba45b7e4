package kvstore

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pos-backend/internal/apperr"
)

type widget struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryGetSetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "a", []byte(`1`)))
	v, err := m.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte(`1`), v)

	require.NoError(t, m.Delete(ctx, "a"))
	require.NoError(t, m.Delete(ctx, "a"))
	_, err = m.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryScanIsPrefixedAndOrdered(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for _, k := range []string{"product:b", "order:x", "product:a", "productive"} {
		require.NoError(t, m.Set(ctx, k, []byte(`{}`)))
	}

	entries, err := m.Scan(ctx, "product:")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "product:a", entries[0].Key)
	assert.Equal(t, "product:b", entries[1].Key)
}

func TestMemoryApplyIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "gone", []byte(`1`)))

	m.FailApply(errors.New("disk full"))
	err := m.Apply(ctx, []Op{{Key: "new", Value: []byte(`2`)}, Del("gone")})
	require.Error(t, err)
	assert.Equal(t, 1, m.Len())

	m.FailApply(nil)
	require.NoError(t, m.Apply(ctx, []Op{{Key: "new", Value: []byte(`2`)}, Del("gone")}))
	_, err = m.Get(ctx, "gone")
	assert.ErrorIs(t, err, ErrNotFound)
	v, err := m.Get(ctx, "new")
	require.NoError(t, err)
	assert.Equal(t, []byte(`2`), v)
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, SetJSON(ctx, m, "w:1", widget{Name: "bolt", Count: 3}))
	op, err := Put("w:2", widget{Name: "nut", Count: 7})
	require.NoError(t, err)
	require.NoError(t, Commit(ctx, m, []Op{op}))

	w, err := GetJSON[widget](ctx, m, "w:1")
	require.NoError(t, err)
	assert.Equal(t, widget{Name: "bolt", Count: 3}, w)

	all, err := ScanJSON[widget](ctx, m, "w:")
	require.NoError(t, err)
	assert.Equal(t, []widget{{"bolt", 3}, {"nut", 7}}, all)

	_, err = GetJSON[widget](ctx, m, "w:3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCorruptValueIsStorageFailure(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.Set(ctx, "w:bad", []byte(`{not json`)))

	_, err := GetJSON[widget](ctx, m, "w:bad")
	assert.Equal(t, apperr.StorageFailure, apperr.KindOf(err))

	_, err = ScanJSON[widget](ctx, m, "w:")
	assert.Equal(t, apperr.StorageFailure, apperr.KindOf(err))
}

func TestCommitFailureIsStorageFailure(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	m.FailApply(errors.New("disk full"))

	err := Commit(ctx, m, []Op{Del("x")})
	assert.Equal(t, apperr.StorageFailure, apperr.KindOf(err))
	assert.NoError(t, Commit(ctx, m, nil))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `stock\_history:`, escapeLike("stock_history:"))
	assert.Equal(t, `100\%`, escapeLike("100%"))
}
