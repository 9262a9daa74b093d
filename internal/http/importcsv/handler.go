package importcsv

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/budgetbuddy/internal/http/respond"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/importer"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction"
)

const maxUploadSize = 10 << 20

type Handler struct {
	importSvc *importer.Service
	txSvc     *transaction.Service
}

func NewHandler(importSvc *importer.Service, txSvc *transaction.Service) *Handler {
	return &Handler{
		importSvc: importSvc,
		txSvc:     txSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/banks", h.banks)
	r.Post("/", h.importCSV)
}

type transactionResponse struct {
	ID          string `json:"id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Synced      bool   `json:"synced"`
}

type rejectionResponse struct {
	Index       int    `json:"index"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Error       string `json:"error"`
}

type importResponse struct {
	Imported     int                   `json:"imported"`
	Transactions []transactionResponse `json:"transactions"`
	Rejected     []rejectionResponse   `json:"rejected"`
}

func (h *Handler) banks(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, h.importSvc.Banks())
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respond.BadRequest(w, "failed to parse form: "+err.Error())
		return
	}

	bank := importer.Bank(r.FormValue("bank"))
	if bank == "" {
		respond.BadRequest(w, "bank field is required")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		respond.BadRequest(w, "file field is required")
		return
	}
	defer file.Close()

	drafts, err := h.importSvc.Import(bank, file)
	if err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	result, err := h.txSvc.Import(r.Context(), drafts)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, toImportResponse(result))
}

func toImportResponse(result *transaction.ImportResult) importResponse {
	resp := importResponse{
		Imported:     len(result.Imported),
		Transactions: make([]transactionResponse, 0, len(result.Imported)),
		Rejected:     make([]rejectionResponse, 0, len(result.Rejected)),
	}

	for _, tx := range result.Imported {
		resp.Transactions = append(resp.Transactions, transactionResponse{
			ID:          tx.ID,
			Amount:      tx.Amount.StringFixed(2),
			Description: tx.Description,
			Date:        tx.Date,
			Synced:      tx.Synced,
		})
	}

	for _, rej := range result.Rejected {
		resp.Rejected = append(resp.Rejected, rejectionResponse{
			Index:       rej.Index,
			Amount:      rej.Draft.Amount.StringFixed(2),
			Description: rej.Draft.Description,
			Date:        formatDate(rej.Draft.Date),
			Error:       rej.Err.Error(),
		})
	}

	return resp
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	return t.Format(transaction.DateLayout)
}
