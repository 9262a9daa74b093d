package transaction_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction"
)

func tx(id, amount string, synced bool) *transaction.Transaction {
	return &transaction.Transaction{
		ID:          id,
		OwnerID:     owner,
		Description: "row " + id,
		Amount:      decimal.RequireFromString(amount),
		Date:        "2024-01-01",
		Synced:      synced,
	}
}

func receive(t *testing.T, ch <-chan transaction.Resource) transaction.Resource {
	t.Helper()

	select {
	case r, ok := <-ch:
		require.True(t, ok, "stream closed")
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for emission")
	}

	return transaction.Resource{}
}

func TestMerge(t *testing.T) {
	local := []*transaction.Transaction{tx("l1", "10", false)}
	remote := []*transaction.Transaction{tx("r1", "20", true)}

	tests := []struct {
		name   string
		local  []*transaction.Transaction
		remote transaction.Resource
		want   transaction.Resource
	}{
		{
			name:   "RemoteSuccessWinsOverLocal",
			local:  local,
			remote: transaction.Success(remote),
			want:   transaction.Success(remote),
		},
		{
			name:   "RemoteSuccessEmptyStillWins",
			local:  local,
			remote: transaction.Success(nil),
			want:   transaction.Success(nil),
		},
		{
			name:   "LoadingWithLocalRows",
			local:  local,
			remote: transaction.Loading(),
			want:   transaction.Success(local),
		},
		{
			name:   "LoadingWithoutLocalRows",
			remote: transaction.Loading(),
			want:   transaction.Loading(),
		},
		{
			name:   "ErrorWithLocalRows",
			local:  local,
			remote: transaction.Failed("offline"),
			want:   transaction.Success(local),
		},
		{
			name:   "ErrorWithoutLocalRows",
			remote: transaction.Failed("offline"),
			want:   transaction.Failed("offline"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transaction.Merge(tt.local, tt.remote))
		})
	}
}

type streams struct {
	local  chan []*transaction.Transaction
	remote chan transaction.Snapshot
}

func observe(t *testing.T, svc *transaction.Service, m mocks, subscribeErr error) (<-chan transaction.Resource, streams, context.CancelFunc) {
	t.Helper()

	s := streams{
		local:  make(chan []*transaction.Transaction, 1),
		remote: make(chan transaction.Snapshot, 1),
	}

	m.local.EXPECT().ObserveByOwner(gomock.Any(), owner).Return((<-chan []*transaction.Transaction)(s.local), nil)

	if subscribeErr != nil {
		m.remote.EXPECT().SubscribeSubtree(gomock.Any(), owner).Return(nil, subscribeErr)
	} else {
		m.remote.EXPECT().SubscribeSubtree(gomock.Any(), owner).Return((<-chan transaction.Snapshot)(s.remote), nil)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	out, err := svc.ObserveTransactions(ctx, owner)
	require.NoError(t, err)

	return out, s, cancel
}

func TestObserveTransactions_LocalRowsWhileRemoteLoading(t *testing.T) {
	svc, m := newService(t)
	out, s, _ := observe(t, svc, m, nil)

	local := []*transaction.Transaction{tx("a", "10", false)}
	s.local <- local

	got := receive(t, out)
	assert.Equal(t, transaction.StateSuccess, got.State)
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, "a", got.Transactions[0].ID)
	assert.False(t, got.Transactions[0].Synced)
}

func TestObserveTransactions_RemoteSuccessOverridesAndCaches(t *testing.T) {
	svc, m := newService(t)
	out, s, _ := observe(t, svc, m, nil)

	s.local <- []*transaction.Transaction{tx("a", "10", false)}
	receive(t, out)

	cached := make(chan []*transaction.Transaction, 1)
	m.local.EXPECT().InsertAll(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rows []*transaction.Transaction) error {
			cached <- rows
			return nil
		})

	s.remote <- transaction.Snapshot{Children: []transaction.Child{
		{Key: "r1", Document: transaction.Document{Description: "Salary", Amount: decimal.NewFromInt(100), DateText: "2024-02-01"}},
		{Key: "r2", Document: transaction.Document{Description: "Rent", Amount: decimal.NewFromInt(-50), DateText: "2024-01-15"}},
	}}

	got := receive(t, out)
	assert.Equal(t, transaction.StateSuccess, got.State)
	require.Len(t, got.Transactions, 2)
	assert.Equal(t, "r1", got.Transactions[0].ID)
	assert.True(t, got.Transactions[0].Synced)
	assert.Equal(t, owner, got.Transactions[1].OwnerID)

	rows := <-cached
	require.Len(t, rows, 2)

	for _, row := range rows {
		assert.True(t, row.Synced)
		assert.Equal(t, owner, row.OwnerID)
	}
}

func TestObserveTransactions_RemoteErrorWithoutLocalRows(t *testing.T) {
	svc, m := newService(t)
	out, s, _ := observe(t, svc, m, nil)

	s.local <- nil
	assert.Equal(t, transaction.Loading(), receive(t, out))

	s.remote <- transaction.Snapshot{Err: errors.New("permission denied")}

	got := receive(t, out)
	assert.Equal(t, transaction.StateError, got.State)
	assert.Equal(t, "permission denied", got.Message)
}

func TestObserveTransactions_RemoteErrorFallsBackToLocal(t *testing.T) {
	svc, m := newService(t)
	out, s, _ := observe(t, svc, m, nil)

	s.remote <- transaction.Snapshot{Err: errors.New("offline")}
	assert.Equal(t, transaction.StateError, receive(t, out).State)

	s.local <- []*transaction.Transaction{tx("a", "10", false)}

	got := receive(t, out)
	assert.Equal(t, transaction.StateSuccess, got.State)
	assert.Len(t, got.Transactions, 1)
}

func TestObserveTransactions_SubscribeFailureShowsLocal(t *testing.T) {
	svc, m := newService(t)
	out, s, _ := observe(t, svc, m, errors.New("no network"))

	s.local <- []*transaction.Transaction{tx("a", "10", false)}

	got := receive(t, out)
	assert.Equal(t, transaction.StateSuccess, got.State)
	assert.Len(t, got.Transactions, 1)
}

func TestObserveTransactions_SubscribeFailureWithoutLocalRows(t *testing.T) {
	svc, m := newService(t)
	out, s, _ := observe(t, svc, m, errors.New("no network"))

	s.local <- nil

	got := receive(t, out)
	assert.Equal(t, transaction.StateError, got.State)
	assert.Equal(t, "no network", got.Message)
}

func remoteRows(keys ...string) transaction.Snapshot {
	children := make([]transaction.Child, len(keys))
	for i, k := range keys {
		children[i] = transaction.Child{Key: k, Document: transaction.Document{
			Description: "remote " + k,
			Amount:      decimal.NewFromInt(10),
			DateText:    "2024-02-01",
		}}
	}

	return transaction.Snapshot{Children: children}
}

func TestObserveTransactions_ClosedSubscriptionResubscribes(t *testing.T) {
	svc, m := newService(t, transaction.WithResubscribeBackoff(10*time.Millisecond, 10*time.Millisecond))

	local := make(chan []*transaction.Transaction, 1)
	first := make(chan transaction.Snapshot, 1)
	second := make(chan transaction.Snapshot, 1)

	m.local.EXPECT().ObserveByOwner(gomock.Any(), owner).Return((<-chan []*transaction.Transaction)(local), nil)
	m.local.EXPECT().InsertAll(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	gomock.InOrder(
		m.remote.EXPECT().SubscribeSubtree(gomock.Any(), owner).Return((<-chan transaction.Snapshot)(first), nil),
		m.remote.EXPECT().SubscribeSubtree(gomock.Any(), owner).Return((<-chan transaction.Snapshot)(second), nil),
	)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	out, err := svc.ObserveTransactions(ctx, owner)
	require.NoError(t, err)

	local <- nil
	assert.Equal(t, transaction.Loading(), receive(t, out))

	first <- remoteRows("r1")
	assert.Len(t, receive(t, out).Transactions, 1)

	close(first)

	got := receive(t, out)
	assert.Equal(t, transaction.StateError, got.State)
	assert.Equal(t, "remote subscription closed", got.Message)

	second <- remoteRows("r1", "r2")

	got = receive(t, out)
	assert.Equal(t, transaction.StateSuccess, got.State)
	assert.Len(t, got.Transactions, 2)
}

func TestObserveTransactions_SubscribeFailureRetriesWithBackoff(t *testing.T) {
	svc, m := newService(t, transaction.WithResubscribeBackoff(10*time.Millisecond, 20*time.Millisecond))

	local := make(chan []*transaction.Transaction, 1)
	remote := make(chan transaction.Snapshot, 1)

	m.local.EXPECT().ObserveByOwner(gomock.Any(), owner).Return((<-chan []*transaction.Transaction)(local), nil)
	m.local.EXPECT().InsertAll(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	gomock.InOrder(
		m.remote.EXPECT().SubscribeSubtree(gomock.Any(), owner).Return(nil, errors.New("no network")).Times(2),
		m.remote.EXPECT().SubscribeSubtree(gomock.Any(), owner).Return((<-chan transaction.Snapshot)(remote), nil),
	)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	out, err := svc.ObserveTransactions(ctx, owner)
	require.NoError(t, err)

	local <- nil
	assert.Equal(t, transaction.StateError, receive(t, out).State)

	remote <- remoteRows("r1")

	got := receive(t, out)
	assert.Equal(t, transaction.StateSuccess, got.State)
	assert.Len(t, got.Transactions, 1)
}

func TestObserveTransactions_RefreshResubscribesAfterFailure(t *testing.T) {
	svc, m := newService(t)

	local := make(chan []*transaction.Transaction, 1)
	remote := make(chan transaction.Snapshot, 1)

	m.local.EXPECT().ObserveByOwner(gomock.Any(), owner).Return((<-chan []*transaction.Transaction)(local), nil)
	m.local.EXPECT().GetByOwner(gomock.Any(), owner).Return(nil, nil)
	m.local.EXPECT().InsertAll(gomock.Any(), gomock.Any()).Return(nil)
	gomock.InOrder(
		m.remote.EXPECT().SubscribeSubtree(gomock.Any(), owner).Return(nil, errors.New("no network")),
		m.remote.EXPECT().SubscribeSubtree(gomock.Any(), owner).Return((<-chan transaction.Snapshot)(remote), nil),
	)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	out, err := svc.ObserveTransactions(ctx, owner)
	require.NoError(t, err)

	local <- nil

	got := receive(t, out)
	assert.Equal(t, transaction.StateError, got.State)
	assert.Equal(t, "no network", got.Message)

	svc.Refresh(owner)
	remote <- remoteRows("r1")

	got = receive(t, out)
	assert.Equal(t, transaction.StateSuccess, got.State)
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, "r1", got.Transactions[0].ID)
}

func TestObserveTransactions_DeduplicatesIdenticalEmissions(t *testing.T) {
	svc, m := newService(t)
	out, s, _ := observe(t, svc, m, nil)

	s.local <- []*transaction.Transaction{tx("a", "10", false)}
	receive(t, out)

	s.local <- []*transaction.Transaction{tx("a", "10.00", false)}
	s.local <- []*transaction.Transaction{tx("a", "10", true)}

	got := receive(t, out)
	require.Len(t, got.Transactions, 1)
	assert.True(t, got.Transactions[0].Synced)
}

func TestObserveTransactions_RefreshRereadsLocal(t *testing.T) {
	svc, m := newService(t)
	out, s, _ := observe(t, svc, m, nil)

	s.local <- []*transaction.Transaction{tx("a", "10", false)}
	receive(t, out)

	m.local.EXPECT().GetByOwner(gomock.Any(), owner).Return([]*transaction.Transaction{
		tx("b", "5", false),
		tx("a", "10", false),
	}, nil)

	svc.Refresh(owner)

	got := receive(t, out)
	assert.Len(t, got.Transactions, 2)
}

func TestObserveTransactions_CancelClosesStream(t *testing.T) {
	svc, m := newService(t)
	out, s, cancel := observe(t, svc, m, nil)

	s.local <- nil
	receive(t, out)

	cancel()

	select {
	case _, ok := <-out:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("stream not closed after cancel")
	}
}

func TestObserveTransactions_RequiresOwner(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.ObserveTransactions(context.Background(), "")
	assert.ErrorIs(t, err, transaction.ErrUnauthenticated)
}

func TestObserveTransactions_LocalObserveFailure(t *testing.T) {
	svc, m := newService(t)

	m.local.EXPECT().ObserveByOwner(gomock.Any(), owner).Return(nil, errors.New("corrupt"))

	_, err := svc.ObserveTransactions(context.Background(), owner)
	assert.ErrorIs(t, err, transaction.ErrLocalStore)
}

func TestService_Current(t *testing.T) {
	tests := []struct {
		name     string
		local    []*transaction.Transaction
		snapshot *transaction.Snapshot
		want     transaction.State
		wantLen  int
	}{
		{
			name:    "LocalRows",
			local:   []*transaction.Transaction{tx("a", "10", false)},
			want:    transaction.StateSuccess,
			wantLen: 1,
		},
		{
			name:     "RemoteError",
			snapshot: &transaction.Snapshot{Err: errors.New("offline")},
			want:     transaction.StateError,
		},
		{
			name: "StillLoadingAtDeadline",
			want: transaction.StateLoading,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)

			localCh := make(chan []*transaction.Transaction, 1)
			remoteCh := make(chan transaction.Snapshot, 1)
			localCh <- tt.local

			if tt.snapshot != nil {
				remoteCh <- *tt.snapshot
			}

			m.local.EXPECT().ObserveByOwner(gomock.Any(), owner).Return((<-chan []*transaction.Transaction)(localCh), nil)
			m.remote.EXPECT().SubscribeSubtree(gomock.Any(), owner).Return((<-chan transaction.Snapshot)(remoteCh), nil)

			ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
			defer cancel()

			got, err := svc.Current(ctx, owner)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.State)
			assert.Len(t, got.Transactions, tt.wantLen)
		})
	}
}

func TestService_CurrentRequiresOwner(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Current(context.Background(), "")
	assert.ErrorIs(t, err, transaction.ErrUnauthenticated)
}
