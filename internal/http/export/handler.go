package export

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/budgetbuddy/internal/export"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/http/respond"
	txhttp "github.com/MrJamesThe3rd/budgetbuddy/internal/http/transaction"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction"
)

type Handler struct {
	svc   *export.Service
	txSvc *transaction.Service
}

func NewHandler(svc *export.Service, txSvc *transaction.Service) *Handler {
	return &Handler{svc: svc, txSvc: txSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.download)
	r.Get("/text", h.text)
}

// download serves the current list as a CSV attachment.
func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	res, err := txhttp.Current(r.Context(), h.txSvc)
	if err != nil {
		respond.Error(w, err)
		return
	}

	var buf bytes.Buffer
	if err := h.svc.WriteCSV(&buf, res.Transactions); err != nil {
		respond.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.svc.FileName()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) text(w http.ResponseWriter, r *http.Request) {
	res, err := txhttp.Current(r.Context(), h.txSvc)
	if err != nil {
		respond.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.svc.TextReport(res.Transactions)))
}
