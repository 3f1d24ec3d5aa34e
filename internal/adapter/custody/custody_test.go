package custody_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/escrowledger/internal/adapter/custody"
	"github.com/iho/escrowledger/internal/adapter/repository/kv/memory"
	"github.com/iho/escrowledger/internal/usecase"
)

func lockID(b byte) usecase.LockID {
	return usecase.LockID{b}
}

func TestDepositAndBalance(t *testing.T) {
	svc := custody.NewService(memory.NewStore())
	ctx := context.Background()

	// Unknown accounts read as zero
	balance, err := svc.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	require.NoError(t, svc.Deposit(ctx, "alice", decimal.NewFromInt(500)))
	require.NoError(t, svc.Deposit(ctx, "alice", decimal.NewFromInt(250)))

	balance, err = svc.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "750", balance.String())

	assert.Error(t, svc.Deposit(ctx, "alice", decimal.Zero))
	assert.Error(t, svc.Deposit(ctx, "alice", decimal.NewFromInt(-1)))
}

func TestSetLock(t *testing.T) {
	svc := custody.NewService(memory.NewStore())
	ctx := context.Background()
	require.NoError(t, svc.Deposit(ctx, "alice", decimal.NewFromInt(1000)))

	require.NoError(t, svc.SetLock(ctx, lockID(1), "alice", decimal.NewFromInt(600), 100))

	free, err := svc.FreeBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "400", free.String())

	// A second lock cannot exceed the remaining free balance
	err = svc.SetLock(ctx, lockID(2), "alice", decimal.NewFromInt(500), 100)
	assert.ErrorIs(t, err, custody.ErrInsufficientFunds)

	require.NoError(t, svc.SetLock(ctx, lockID(2), "alice", decimal.NewFromInt(400), 100))
	free, err = svc.FreeBalance(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, free.IsZero())

	// The total balance is untouched by locking
	balance, err := svc.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "1000", balance.String())
}

func TestExtendLock(t *testing.T) {
	svc := custody.NewService(memory.NewStore())
	ctx := context.Background()
	require.NoError(t, svc.Deposit(ctx, "alice", decimal.NewFromInt(1000)))

	// Extending a missing lock creates it
	require.NoError(t, svc.ExtendLock(ctx, lockID(1), "alice", decimal.NewFromInt(300), 50))
	free, err := svc.FreeBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "700", free.String())

	// Extension keeps the larger amount
	require.NoError(t, svc.ExtendLock(ctx, lockID(1), "alice", decimal.NewFromInt(100), 200))
	free, err = svc.FreeBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "700", free.String())

	require.NoError(t, svc.ExtendLock(ctx, lockID(1), "alice", decimal.NewFromInt(900), 10))
	free, err = svc.FreeBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "100", free.String())
}

func TestRemoveLock(t *testing.T) {
	svc := custody.NewService(memory.NewStore())
	ctx := context.Background()
	require.NoError(t, svc.Deposit(ctx, "alice", decimal.NewFromInt(1000)))
	require.NoError(t, svc.SetLock(ctx, lockID(1), "alice", decimal.NewFromInt(1000), 100))

	require.NoError(t, svc.RemoveLock(ctx, lockID(1), "alice"))

	free, err := svc.FreeBalance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "1000", free.String())

	// Removing an absent lock is a no-op
	require.NoError(t, svc.RemoveLock(ctx, lockID(9), "alice"))
}

func TestTransfer(t *testing.T) {
	svc := custody.NewService(memory.NewStore())
	ctx := context.Background()
	require.NoError(t, svc.Deposit(ctx, "alice", decimal.NewFromInt(1000)))

	require.NoError(t, svc.Transfer(ctx, "alice", "bob", decimal.NewFromInt(400)))

	aliceBalance, err := svc.Balance(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "600", aliceBalance.String())
	bobBalance, err := svc.Balance(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "400", bobBalance.String())

	assert.Error(t, svc.Transfer(ctx, "alice", "bob", decimal.Zero))
}

func TestTransfer_LockedFundsDoNotMove(t *testing.T) {
	svc := custody.NewService(memory.NewStore())
	ctx := context.Background()
	require.NoError(t, svc.Deposit(ctx, "alice", decimal.NewFromInt(1000)))
	require.NoError(t, svc.SetLock(ctx, lockID(1), "alice", decimal.NewFromInt(800), 100))

	err := svc.Transfer(ctx, "alice", "bob", decimal.NewFromInt(300))
	assert.ErrorIs(t, err, custody.ErrInsufficientFunds)

	// Within the free portion the transfer goes through
	require.NoError(t, svc.Transfer(ctx, "alice", "bob", decimal.NewFromInt(200)))
	free, err := svc.FreeBalance(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, free.IsZero())
}
