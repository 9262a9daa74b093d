package transaction

import (
	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction"
)

type transactionResponse struct {
	ID          string           `json:"id"`
	Amount      string           `json:"amount"`
	Kind        transaction.Kind `json:"kind"`
	Description string           `json:"description"`
	Date        string           `json:"date"`
	Synced      bool             `json:"synced"`
}

type resourceResponse struct {
	State        string                `json:"state"`
	Transactions []transactionResponse `json:"transactions"`
	Message      string                `json:"message,omitempty"`
}

func toResponse(tx *transaction.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID,
		Amount:      tx.Amount.StringFixed(2),
		Kind:        tx.Kind(),
		Description: tx.Description,
		Date:        tx.Date,
		Synced:      tx.Synced,
	}
}

func toResponseList(txs []*transaction.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toResponse(tx)
	}

	return resp
}

func toResourceResponse(r transaction.Resource) resourceResponse {
	return resourceResponse{
		State:        r.State.String(),
		Transactions: toResponseList(r.Transactions),
		Message:      r.Message,
	}
}
