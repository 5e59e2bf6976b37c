// Package storagetest holds the behavioral contract every storage.Engine must pass.
//
// Engine packages call Run from their own tests with a constructor that
// returns a fresh, unopened engine.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thumbcoded/kemmei-app-sub000/internal/storage"
)

// Factory returns a fresh, unopened engine for one subtest
type Factory func(t *testing.T) storage.Engine

// Run executes the contract suite against engines built by newEngine
func Run(t *testing.T, newEngine Factory) {
	t.Helper()

	cases := []struct {
		name string
		fn   func(t *testing.T, e storage.Engine)
	}{
		{"OpenIsIdempotent", testOpenIsIdempotent},
		{"UseBeforeOpen", nil},
		{"UpsertReplaces", testUpsertReplaces},
		{"SelectByKeyMissing", testSelectByKeyMissing},
		{"SelectAllOrdered", testSelectAllOrdered},
		{"CompositeKeys", testCompositeKeys},
		{"DeleteWhereScopesToPrefix", testDeleteWhereScopesToPrefix},
		{"FullKeyWhere", testFullKeyWhere},
		{"DeleteByKey", testDeleteByKey},
		{"KeyValidation", testKeyValidation},
		{"HostileKeys", testHostileKeys},
		{"ConcurrentUpserts", testConcurrentUpserts},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEngine(t)
			t.Cleanup(func() { _ = e.Close() })

			if tc.fn == nil {
				testUseBeforeOpen(t, e)
				return
			}
			require.NoError(t, e.Open(context.Background()))
			tc.fn(t, e)
		})
	}
}

func card(id, title string) storage.Record {
	return storage.Record{
		storage.ColID:       id,
		storage.ColTitle:    title,
		storage.ColContent:  "content of " + id,
		storage.ColMetadata: `{"cert_id":"A"}`,
	}
}

func blob(userID, key, data string) storage.Record {
	return storage.Record{storage.ColUserID: userID, storage.ColKey: key, storage.ColData: data}
}

func testOpenIsIdempotent(t *testing.T, e storage.Engine) {
	ctx := context.Background()
	require.NoError(t, e.Upsert(ctx, storage.Cards, card("c1", "first")))
	require.NoError(t, e.Open(ctx))

	rec, ok, err := e.SelectByKey(ctx, storage.Cards, storage.Key{"c1"})
	require.NoError(t, err)
	require.True(t, ok, "second Open must not discard data")
	assert.Equal(t, "first", rec[storage.ColTitle])
}

func testUseBeforeOpen(t *testing.T, e storage.Engine) {
	_, err := e.SelectAll(context.Background(), storage.Cards)
	assert.True(t, errors.Is(err, storage.ErrNotOpen), "SelectAll before Open: %v", err)

	err = e.Upsert(context.Background(), storage.Cards, card("c1", "x"))
	assert.True(t, errors.Is(err, storage.ErrNotOpen), "Upsert before Open: %v", err)
}

func testUpsertReplaces(t *testing.T, e storage.Engine) {
	ctx := context.Background()
	require.NoError(t, e.Upsert(ctx, storage.Cards, card("c1", "v1")))

	replacement := storage.Record{storage.ColID: "c1", storage.ColTitle: "v2"}
	require.NoError(t, e.Upsert(ctx, storage.Cards, replacement))

	all, err := e.SelectAll(ctx, storage.Cards)
	require.NoError(t, err)
	require.Len(t, all, 1, "upsert on an existing key must not duplicate")
	assert.Equal(t, "v2", all[0][storage.ColTitle])
	assert.Equal(t, "", all[0][storage.ColContent], "upsert is a full replace")
}

func testSelectByKeyMissing(t *testing.T, e storage.Engine) {
	rec, ok, err := e.SelectByKey(context.Background(), storage.Users, storage.Key{"nobody"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, rec)
}

func testSelectAllOrdered(t *testing.T, e storage.Engine) {
	ctx := context.Background()
	for _, id := range []string{"c3", "c1", "c2"} {
		require.NoError(t, e.Upsert(ctx, storage.Cards, card(id, id)))
	}

	all, err := e.SelectAll(ctx, storage.Cards)
	require.NoError(t, err)
	ids := make([]string, len(all))
	for i, r := range all {
		ids[i] = r[storage.ColID]
	}
	assert.Equal(t, []string{"c1", "c2", "c3"}, ids)
}

func testCompositeKeys(t *testing.T, e storage.Engine) {
	ctx := context.Background()
	require.NoError(t, e.Upsert(ctx, storage.Progress, blob("u1", "k1", `{"a":1}`)))
	require.NoError(t, e.Upsert(ctx, storage.Progress, blob("u1", "k2", `{"b":2}`)))
	require.NoError(t, e.Upsert(ctx, storage.Progress, blob("u2", "k1", `{"c":3}`)))
	require.NoError(t, e.Upsert(ctx, storage.Progress, blob("u1", "k1", `{"a":9}`)))
	// Same key in another namespace is independent
	require.NoError(t, e.Upsert(ctx, storage.Unlocks, blob("u1", "k1", `true`)))

	rows, err := e.SelectWhere(ctx, storage.Progress, storage.Key{"u1"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, `{"a":9}`, rows[0][storage.ColData])
	assert.Equal(t, `{"b":2}`, rows[1][storage.ColData])

	rec, ok, err := e.SelectByKey(ctx, storage.Unlocks, storage.Key{"u1", "k1"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "true", rec[storage.ColData])
}

func testDeleteWhereScopesToPrefix(t *testing.T, e storage.Engine) {
	ctx := context.Background()
	require.NoError(t, e.Upsert(ctx, storage.TestCompletions, blob("u1", "k1", "1")))
	require.NoError(t, e.Upsert(ctx, storage.TestCompletions, blob("u1", "k2", "2")))
	require.NoError(t, e.Upsert(ctx, storage.TestCompletions, blob("u2", "k1", "3")))

	n, err := e.DeleteWhere(ctx, storage.TestCompletions, storage.Key{"u1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	left, err := e.SelectAll(ctx, storage.TestCompletions)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "u2", left[0][storage.ColUserID])

	n, err = e.DeleteWhere(ctx, storage.TestCompletions, storage.Key{"nobody"})
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func testFullKeyWhere(t *testing.T, e storage.Engine) {
	ctx := context.Background()
	require.NoError(t, e.Upsert(ctx, storage.Cards, card("c1", "one")))
	require.NoError(t, e.Upsert(ctx, storage.Cards, card("c10", "ten")))
	require.NoError(t, e.Upsert(ctx, storage.Progress, blob("u1", "k", "1")))
	require.NoError(t, e.Upsert(ctx, storage.Progress, blob("u1", "k2", "2")))

	rows, err := e.SelectWhere(ctx, storage.Cards, storage.Key{"c1"})
	require.NoError(t, err)
	require.Len(t, rows, 1, "a full key must not match longer keys sharing its text")
	assert.Equal(t, "c1", rows[0][storage.ColID])

	rows, err = e.SelectWhere(ctx, storage.Progress, storage.Key{"u1", "k"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "1", rows[0][storage.ColData])

	n, err := e.DeleteWhere(ctx, storage.Cards, storage.Key{"c1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, ok, err := e.SelectByKey(ctx, storage.Cards, storage.Key{"c10"})
	require.NoError(t, err)
	assert.True(t, ok, "c10 survives deleting c1")

	n, err = e.DeleteWhere(ctx, storage.Progress, storage.Key{"u1", "k"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	rec, ok, err := e.SelectByKey(ctx, storage.Progress, storage.Key{"u1", "k2"})
	require.NoError(t, err)
	require.True(t, ok, "k2 survives deleting k")
	assert.Equal(t, "2", rec[storage.ColData])
}

func testDeleteByKey(t *testing.T, e storage.Engine) {
	ctx := context.Background()
	require.NoError(t, e.Upsert(ctx, storage.Cards, card("c1", "x")))
	require.NoError(t, e.DeleteByKey(ctx, storage.Cards, storage.Key{"c1"}))
	require.NoError(t, e.DeleteByKey(ctx, storage.Cards, storage.Key{"c1"}), "deleting an absent row is not an error")

	_, ok, err := e.SelectByKey(ctx, storage.Cards, storage.Key{"c1"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func testKeyValidation(t *testing.T, e storage.Engine) {
	ctx := context.Background()

	err := e.Upsert(ctx, storage.Progress, blob("u1", "", "1"))
	assert.True(t, errors.Is(err, storage.ErrKeyMismatch), "empty key column: %v", err)

	_, err = e.DeleteWhere(ctx, storage.Progress, nil)
	assert.True(t, errors.Is(err, storage.ErrKeyMismatch), "unbounded bulk delete: %v", err)

	_, _, err = e.SelectByKey(ctx, storage.Progress, storage.Key{"u1"})
	assert.True(t, errors.Is(err, storage.ErrKeyMismatch), "partial key for SelectByKey: %v", err)

	_, err = e.SelectAll(ctx, storage.Collection("nope"))
	assert.True(t, errors.Is(err, storage.ErrUnknownCollection), "unknown collection: %v", err)
}

func testHostileKeys(t *testing.T, e storage.Engine) {
	ctx := context.Background()
	hostile := []string{
		"u'1",
		"x'; DROP TABLE cards; --",
		`back\slash`,
		"1 OR 1=1",
		"a/b:c%2F",
	}

	require.NoError(t, e.Upsert(ctx, storage.Cards, card("keep", "keep")))
	for i, id := range hostile {
		require.NoError(t, e.Upsert(ctx, storage.Progress, blob(id, id, fmt.Sprintf("%d", i))))
	}

	for i, id := range hostile {
		rec, ok, err := e.SelectByKey(ctx, storage.Progress, storage.Key{id, id})
		require.NoError(t, err)
		require.True(t, ok, "key %q not found", id)
		assert.Equal(t, fmt.Sprintf("%d", i), rec[storage.ColData])

		rows, err := e.SelectWhere(ctx, storage.Progress, storage.Key{id})
		require.NoError(t, err)
		assert.Len(t, rows, 1, "partial key %q must match exactly one user", id)
	}

	cards, err := e.SelectAll(ctx, storage.Cards)
	require.NoError(t, err)
	assert.Len(t, cards, 1, "cards table must survive hostile keys")
}

func testConcurrentUpserts(t *testing.T, e storage.Engine) {
	ctx := context.Background()
	const n = 20

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- e.Upsert(ctx, storage.Progress, blob("u1", fmt.Sprintf("k%02d", i), "1"))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	rows, err := e.SelectWhere(ctx, storage.Progress, storage.Key{"u1"})
	require.NoError(t, err)
	assert.Len(t, rows, n)
}
