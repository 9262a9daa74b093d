package transaction

// State is the phase of a Resource.
type State int

const (
	StateLoading State = iota
	StateSuccess
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	}

	return "unknown"
}

// Resource is the UI-facing view of the transaction list.
type Resource struct {
	State        State
	Transactions []*Transaction
	Message      string
}

func Loading() Resource {
	return Resource{State: StateLoading}
}

func Success(txs []*Transaction) Resource {
	return Resource{State: StateSuccess, Transactions: txs}
}

func Failed(message string) Resource {
	return Resource{State: StateError, Message: message}
}

// Merge combines the latest local rows with the latest remote state.
//
// Once remote has answered successfully it wins, even over non-empty local rows. While
// remote is loading or failing, local rows are shown when there are any.
func Merge(local []*Transaction, remote Resource) Resource {
	switch remote.State {
	case StateSuccess:
		return remote
	case StateLoading:
		if len(local) > 0 {
			return Success(local)
		}

		return Loading()
	case StateError:
		if len(local) > 0 {
			return Success(local)
		}

		return remote
	}

	return remote
}

// fromSnapshot translates one remote emission into a Resource.
func fromSnapshot(ownerID string, snap Snapshot) Resource {
	if snap.Err != nil {
		return Failed(snap.Err.Error())
	}

	txs := make([]*Transaction, 0, len(snap.Children))
	for _, c := range snap.Children {
		txs = append(txs, c.Transaction(ownerID))
	}

	return Success(txs)
}

// equal reports whether two resources would render identically.
func (r Resource) equal(o Resource) bool {
	if r.State != o.State || r.Message != o.Message || len(r.Transactions) != len(o.Transactions) {
		return false
	}

	for i, a := range r.Transactions {
		b := o.Transactions[i]
		if a.ID != b.ID || a.Description != b.Description || a.Date != b.Date ||
			a.Synced != b.Synced || !a.Amount.Equal(b.Amount) {
			return false
		}
	}

	return true
}
