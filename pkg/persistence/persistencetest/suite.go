// Package persistencetest holds the behaviour every IStateStore backend must share.
package persistencetest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/Layr-Labs/multisig-account-go/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreFactory returns a fresh, empty store. The suite closes it.
type StoreFactory func(t *testing.T) persistence.IStateStore

// Run executes the shared backend tests. keyspace isolates keys when the
// backend is shared between runs (redis).
func Run(t *testing.T, keyspace string, newStore StoreFactory) {
	key := func(name string) []byte {
		return []byte(keyspace + name)
	}

	t.Run("commit makes writes visible", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()
		ctx := context.Background()

		txn, err := store.NewTransaction(ctx)
		require.NoError(t, err)
		require.NoError(t, txn.Set(key("a"), []byte("one")))

		v, err := txn.Get(key("a"))
		require.NoError(t, err)
		assert.Equal(t, []byte("one"), v)
		require.NoError(t, txn.Commit())

		txn, err = store.NewTransaction(ctx)
		require.NoError(t, err)
		defer txn.Discard()
		v, err = txn.Get(key("a"))
		require.NoError(t, err)
		assert.Equal(t, []byte("one"), v)
	})

	t.Run("discard drops writes", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()
		ctx := context.Background()

		txn, err := store.NewTransaction(ctx)
		require.NoError(t, err)
		require.NoError(t, txn.Set(key("b"), []byte("gone")))
		txn.Discard()

		txn, err = store.NewTransaction(ctx)
		require.NoError(t, err)
		defer txn.Discard()
		v, err := txn.Get(key("b"))
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("delete", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()
		ctx := context.Background()

		txn, err := store.NewTransaction(ctx)
		require.NoError(t, err)
		require.NoError(t, txn.Set(key("c"), []byte("x")))
		require.NoError(t, txn.Commit())

		txn, err = store.NewTransaction(ctx)
		require.NoError(t, err)
		require.NoError(t, txn.Delete(key("c")))
		v, err := txn.Get(key("c"))
		require.NoError(t, err)
		assert.Nil(t, v)
		require.NoError(t, txn.Delete(key("never-written")))
		require.NoError(t, txn.Commit())

		txn, err = store.NewTransaction(ctx)
		require.NoError(t, err)
		defer txn.Discard()
		v, err = txn.Get(key("c"))
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("values are copied", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()
		ctx := context.Background()

		value := []byte("immutable")
		txn, err := store.NewTransaction(ctx)
		require.NoError(t, err)
		require.NoError(t, txn.Set(key("d"), value))
		value[0] = 'X'
		require.NoError(t, txn.Commit())

		txn, err = store.NewTransaction(ctx)
		require.NoError(t, err)
		defer txn.Discard()
		v, err := txn.Get(key("d"))
		require.NoError(t, err)
		assert.Equal(t, []byte("immutable"), v)
	})

	t.Run("finished transaction rejects use", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()

		txn, err := store.NewTransaction(context.Background())
		require.NoError(t, err)
		require.NoError(t, txn.Commit())

		assert.ErrorIs(t, txn.Set(key("e"), []byte("late")), persistence.ErrTransactionDone)
		assert.ErrorIs(t, txn.Commit(), persistence.ErrTransactionDone)
		txn.Discard()
	})

	t.Run("closed store", func(t *testing.T) {
		store := newStore(t)
		require.NoError(t, store.HealthCheck())
		require.NoError(t, store.Close())
		require.NoError(t, store.Close())

		_, err := store.NewTransaction(context.Background())
		assert.ErrorIs(t, err, persistence.ErrClosed)
		assert.Error(t, store.HealthCheck())
	})

	t.Run("deployment record", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()
		ctx := context.Background()

		rec := &persistence.DeploymentRecord{
			AccountAddress:  "0x00000000000000000000000000000000000000aa",
			AccessorAddress: "0x00000000000000000000000000000000000000bb",
			ChainID:         31337,
			Owners:          []string{"0x0000000000000000000000000000000000000001"},
			Threshold:       1,
			DeployedAt:      1700000000,
		}
		require.NoError(t, persistence.SaveDeploymentRecord(ctx, store, rec))

		loaded, err := persistence.LoadDeploymentRecord(ctx, store)
		require.NoError(t, err)
		assert.Equal(t, rec, loaded)
	})

	t.Run("concurrent transactions", func(t *testing.T) {
		store := newStore(t)
		defer func() { _ = store.Close() }()
		ctx := context.Background()

		var wg sync.WaitGroup
		errs := make(chan error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				txn, err := store.NewTransaction(ctx)
				if err != nil {
					errs <- err
					return
				}
				if err := txn.Set(key(fmt.Sprintf("concurrent-%d", i)), []byte{byte(i)}); err != nil {
					errs <- err
					return
				}
				errs <- txn.Commit()
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		txn, err := store.NewTransaction(ctx)
		require.NoError(t, err)
		defer txn.Discard()
		for i := 0; i < 10; i++ {
			v, err := txn.Get(key(fmt.Sprintf("concurrent-%d", i)))
			require.NoError(t, err)
			assert.Equal(t, []byte{byte(i)}, v)
		}
	})
}
