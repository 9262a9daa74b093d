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

const owner = "user-1"

var fixedNow = time.Date(2024, 3, 9, 14, 30, 0, 0, time.UTC)

type mocks struct {
	local    *transaction.MockLocalStore
	remote   *transaction.MockRemoteStore
	identity *transaction.MockIdentity
}

// newService resubscribes to the remote only on Refresh unless opts set a shorter backoff.
func newService(t *testing.T, opts ...transaction.Option) (*transaction.Service, mocks) {
	t.Helper()

	ctrl := gomock.NewController(t)

	m := mocks{
		local:    transaction.NewMockLocalStore(ctrl),
		remote:   transaction.NewMockRemoteStore(ctrl),
		identity: transaction.NewMockIdentity(ctrl),
	}

	opts = append([]transaction.Option{
		transaction.WithClock(func() time.Time { return fixedNow }),
		transaction.WithResubscribeBackoff(time.Hour, time.Hour),
	}, opts...)

	svc := transaction.NewService(m.local, m.remote, m.identity, opts...)

	return svc, m
}

func TestService_AddIncome(t *testing.T) {
	type testCase struct {
		name        string
		amount      string
		description string
		setupMock   func(m mocks)
		wantErr     error
		wantSynced  bool
		wantDesc    string
	}

	tests := []testCase{
		{
			name:        "Success",
			amount:      "100.50",
			description: "Salary",
			setupMock: func(m mocks) {
				m.identity.EXPECT().CurrentUserID(gomock.Any()).Return(owner, nil)
				m.remote.EXPECT().AllocateKey(gomock.Any(), owner).Return("k1", nil)
				m.local.EXPECT().Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
						assert.False(t, tx.Synced)
						assert.Equal(t, "k1", tx.ID)
						return nil
					})
				m.remote.EXPECT().WriteValue(gomock.Any(), owner, "k1", transaction.Document{
					Description: "Salary",
					Amount:      decimal.RequireFromString("100.50"),
					DateText:    "2024-03-09",
				}).Return(nil)
				m.local.EXPECT().Update(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, tx *transaction.Transaction) error {
						assert.True(t, tx.Synced)
						return nil
					})
			},
			wantSynced: true,
			wantDesc:   "Salary",
		},
		{
			name:   "DefaultDescription",
			amount: "5",
			setupMock: func(m mocks) {
				m.identity.EXPECT().CurrentUserID(gomock.Any()).Return(owner, nil)
				m.remote.EXPECT().AllocateKey(gomock.Any(), owner).Return("k1", nil)
				m.local.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
				m.remote.EXPECT().WriteValue(gomock.Any(), owner, "k1", gomock.Any()).Return(nil)
				m.local.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
			},
			wantSynced: true,
			wantDesc:   transaction.DefaultIncomeDescription,
		},
		{
			name:        "RemoteWriteFailureLeavesRowPending",
			amount:      "20",
			description: "Gift",
			setupMock: func(m mocks) {
				m.identity.EXPECT().CurrentUserID(gomock.Any()).Return(owner, nil)
				m.remote.EXPECT().AllocateKey(gomock.Any(), owner).Return("k1", nil)
				m.local.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
				m.remote.EXPECT().WriteValue(gomock.Any(), owner, "k1", gomock.Any()).Return(errors.New("timeout"))
			},
			wantSynced: false,
			wantDesc:   "Gift",
		},
		{
			name:   "InvalidAmount",
			amount: "abc",
			setupMock: func(m mocks) {},
			wantErr:   &transaction.ValidationError{},
		},
		{
			name:      "ZeroAmount",
			amount:    "0",
			setupMock: func(m mocks) {},
			wantErr:   &transaction.ValidationError{},
		},
		{
			name:      "EmptyAmount",
			amount:    "  ",
			setupMock: func(m mocks) {},
			wantErr:   &transaction.ValidationError{},
		},
		{
			name:      "BeyondRemotePrecision",
			amount:    "0.00001",
			setupMock: func(m mocks) {},
			wantErr:   &transaction.ValidationError{},
		},
		{
			name:      "BeyondRemoteRange",
			amount:    "10000000000000000",
			setupMock: func(m mocks) {},
			wantErr:   &transaction.ValidationError{},
		},
		{
			name:   "NotSignedIn",
			amount: "10",
			setupMock: func(m mocks) {
				m.identity.EXPECT().CurrentUserID(gomock.Any()).Return("", nil)
			},
			wantErr: transaction.ErrUnauthenticated,
		},
		{
			name:   "KeyAllocationFailure",
			amount: "10",
			setupMock: func(m mocks) {
				m.identity.EXPECT().CurrentUserID(gomock.Any()).Return(owner, nil)
				m.remote.EXPECT().AllocateKey(gomock.Any(), owner).Return("", errors.New("offline"))
			},
			wantErr: transaction.ErrRemoteUnavailable,
		},
		{
			name:   "LocalInsertFailure",
			amount: "10",
			setupMock: func(m mocks) {
				m.identity.EXPECT().CurrentUserID(gomock.Any()).Return(owner, nil)
				m.remote.EXPECT().AllocateKey(gomock.Any(), owner).Return("k1", nil)
				m.local.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))
			},
			wantErr: transaction.ErrLocalStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)
			tt.setupMock(m)

			got, err := svc.AddIncome(context.Background(), tt.amount, tt.description)

			if tt.wantErr != nil {
				assert.Nil(t, got)

				var vErr *transaction.ValidationError
				if errors.As(tt.wantErr, &vErr) {
					assert.True(t, transaction.IsValidation(err))
					return
				}

				assert.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "k1", got.ID)
			assert.Equal(t, owner, got.OwnerID)
			assert.Equal(t, "2024-03-09", got.Date)
			assert.Equal(t, tt.wantDesc, got.Description)
			assert.Equal(t, tt.wantSynced, got.Synced)
			assert.True(t, got.Amount.IsPositive())
		})
	}
}

func TestService_AddExpense(t *testing.T) {
	svc, m := newService(t)

	m.identity.EXPECT().CurrentUserID(gomock.Any()).Return(owner, nil)
	m.remote.EXPECT().AllocateKey(gomock.Any(), owner).Return("k2", nil)
	m.local.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
	m.remote.EXPECT().WriteValue(gomock.Any(), owner, "k2", transaction.Document{
		Description: transaction.DefaultExpenseDescription,
		Amount:      decimal.NewFromInt(-40),
		DateText:    "2024-03-09",
	}).Return(nil)
	m.local.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	got, err := svc.AddExpense(context.Background(), "40", "")
	require.NoError(t, err)

	assert.True(t, got.Amount.Equal(decimal.NewFromInt(-40)))
	assert.Equal(t, transaction.KindExpense, got.Kind())
	assert.Equal(t, transaction.DefaultExpenseDescription, got.Description)
	assert.True(t, got.Synced)
}

func TestService_AddExpense_RejectsNegativeInput(t *testing.T) {
	svc, _ := newService(t)

	got, err := svc.AddExpense(context.Background(), "-40", "Groceries")

	assert.Nil(t, got)
	assert.True(t, transaction.IsValidation(err))
}

func TestService_AddDated(t *testing.T) {
	svc, m := newService(t)

	day := time.Date(2023, 12, 24, 0, 0, 0, 0, time.UTC)

	m.identity.EXPECT().CurrentUserID(gomock.Any()).Return(owner, nil)
	m.remote.EXPECT().AllocateKey(gomock.Any(), owner).Return("k3", nil)
	m.local.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil)
	m.remote.EXPECT().WriteValue(gomock.Any(), owner, "k3", gomock.Any()).Return(nil)
	m.local.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)

	got, err := svc.AddDated(context.Background(), transaction.KindExpense, "12.34", "Gifts", day)
	require.NoError(t, err)
	assert.Equal(t, "2023-12-24", got.Date)
	assert.Equal(t, "-12.34", got.Amount.String())

	_, err = svc.AddDated(context.Background(), transaction.KindIncome, "1", "", time.Time{})
	assert.True(t, transaction.IsValidation(err))

	_, err = svc.AddDated(context.Background(), transaction.Kind("refund"), "1", "", day)
	assert.True(t, transaction.IsValidation(err))
}

func TestService_Import(t *testing.T) {
	svc, m := newService(t)

	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	drafts := []transaction.Draft{
		{Amount: decimal.NewFromInt(-10), Description: "Coffee", Date: day},
		{Amount: decimal.Zero, Description: "Nothing", Date: day},
		{Amount: decimal.NewFromInt(250), Description: "Refund", Date: day},
	}

	m.identity.EXPECT().CurrentUserID(gomock.Any()).Return(owner, nil).Times(2)
	m.remote.EXPECT().AllocateKey(gomock.Any(), owner).Return("a", nil)
	m.remote.EXPECT().AllocateKey(gomock.Any(), owner).Return("b", nil)
	m.local.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	m.remote.EXPECT().WriteValue(gomock.Any(), owner, gomock.Any(), gomock.Any()).Return(nil).Times(2)
	m.local.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	result, err := svc.Import(context.Background(), drafts)
	require.NoError(t, err)

	require.Len(t, result.Imported, 2)
	assert.Equal(t, "-10", result.Imported[0].Amount.String())
	assert.Equal(t, "250", result.Imported[1].Amount.String())

	require.Len(t, result.Rejected, 1)
	assert.Equal(t, 1, result.Rejected[0].Index)
}

func TestService_Import_StopsOnStoreFailure(t *testing.T) {
	svc, m := newService(t)

	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	drafts := []transaction.Draft{
		{Amount: decimal.NewFromInt(-10), Description: "Coffee", Date: day},
		{Amount: decimal.NewFromInt(-20), Description: "Lunch", Date: day},
	}

	m.identity.EXPECT().CurrentUserID(gomock.Any()).Return(owner, nil)
	m.remote.EXPECT().AllocateKey(gomock.Any(), owner).Return("", errors.New("offline"))

	result, err := svc.Import(context.Background(), drafts)
	require.ErrorIs(t, err, transaction.ErrRemoteUnavailable)
	assert.Empty(t, result.Imported)
}

func TestService_SyncPendingTransactions(t *testing.T) {
	pending := func() []*transaction.Transaction {
		return []*transaction.Transaction{
			{ID: "a", OwnerID: owner, Amount: decimal.NewFromInt(1), Date: "2024-01-01"},
			{ID: "b", OwnerID: owner, Amount: decimal.NewFromInt(-2), Date: "2024-01-02"},
			{ID: "c", OwnerID: owner, Amount: decimal.NewFromInt(3), Date: "2024-01-03"},
		}
	}

	type testCase struct {
		name      string
		setupMock func(m mocks)
		want      transaction.SyncResult
		wantErr   error
	}

	tests := []testCase{
		{
			name: "AllSynced",
			setupMock: func(m mocks) {
				m.local.EXPECT().GetUnsynced(gomock.Any(), owner).Return(pending(), nil)
				m.remote.EXPECT().WriteValue(gomock.Any(), owner, gomock.Any(), gomock.Any()).Return(nil).Times(3)
				m.local.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil).Times(3)
			},
			want: transaction.SyncResult{Attempted: 3, Synced: 3},
		},
		{
			name: "FailureDoesNotStopOthers",
			setupMock: func(m mocks) {
				m.local.EXPECT().GetUnsynced(gomock.Any(), owner).Return(pending(), nil)
				m.remote.EXPECT().WriteValue(gomock.Any(), owner, "a", gomock.Any()).Return(nil)
				m.remote.EXPECT().WriteValue(gomock.Any(), owner, "b", gomock.Any()).Return(errors.New("boom"))
				m.remote.EXPECT().WriteValue(gomock.Any(), owner, "c", gomock.Any()).Return(nil)
				m.local.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil).Times(2)
			},
			want: transaction.SyncResult{Attempted: 3, Synced: 2, Failed: 1},
		},
		{
			name: "NothingPending",
			setupMock: func(m mocks) {
				m.local.EXPECT().GetUnsynced(gomock.Any(), owner).Return(nil, nil)
			},
			want: transaction.SyncResult{},
		},
		{
			name: "LocalFailure",
			setupMock: func(m mocks) {
				m.local.EXPECT().GetUnsynced(gomock.Any(), owner).Return(nil, errors.New("locked"))
			},
			wantErr: transaction.ErrLocalStore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newService(t)
			tt.setupMock(m)

			got, err := svc.SyncPendingTransactions(context.Background(), owner)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_Purge(t *testing.T) {
	svc, m := newService(t)

	m.local.EXPECT().DeleteAllByOwner(gomock.Any(), owner).Return(nil)
	require.NoError(t, svc.Purge(context.Background(), owner))

	m.local.EXPECT().DeleteAllByOwner(gomock.Any(), owner).Return(errors.New("locked"))
	assert.ErrorIs(t, svc.Purge(context.Background(), owner), transaction.ErrLocalStore)
}

type simulatingRemote struct {
	*transaction.MockRemoteStore
	*transaction.MockErrorSimulator
}

func TestService_SetSimulateErrors(t *testing.T) {
	ctrl := gomock.NewController(t)

	sim := transaction.NewMockErrorSimulator(ctrl)
	remote := simulatingRemote{
		MockRemoteStore:    transaction.NewMockRemoteStore(ctrl),
		MockErrorSimulator: sim,
	}

	svc := transaction.NewService(transaction.NewMockLocalStore(ctrl), remote, transaction.NewMockIdentity(ctrl))

	sim.EXPECT().SetSimulateErrors(true)
	sim.EXPECT().SetSimulateErrors(false)

	svc.SetSimulateErrors(true)
	svc.SetSimulateErrors(false)
}

func TestService_SetSimulateErrors_Unsupported(t *testing.T) {
	svc, _ := newService(t)

	assert.NotPanics(t, func() { svc.SetSimulateErrors(true) })
}
