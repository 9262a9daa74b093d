package transaction

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/budgetbuddy/internal/auth"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/http/respond"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/summary"
	"github.com/MrJamesThe3rd/budgetbuddy/internal/transaction"
)

// SettleTimeout caps how long a one-shot read waits for the list to leave Loading.
const SettleTimeout = 5 * time.Second

type Handler struct {
	svc            *transaction.Service
	trendMonths    int
	simulateErrors bool
	now            func() time.Time
}

type Option func(*Handler)

// WithSimulateErrors mounts PUT /simulate-errors. The switch affects every user of the
// remote store, so it is off unless configured.
func WithSimulateErrors(enabled bool) Option {
	return func(h *Handler) { h.simulateErrors = enabled }
}

func NewHandler(svc *transaction.Service, trendMonths int, opts ...Option) *Handler {
	h := &Handler{svc: svc, trendMonths: trendMonths, now: time.Now}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/stream", h.stream)
	r.Get("/summary", h.summary)
	r.Post("/income", h.add(transaction.KindIncome))
	r.Post("/expense", h.add(transaction.KindExpense))
	r.Post("/sync", h.sync)

	if h.simulateErrors {
		r.Put("/simulate-errors", h.setSimulateErrors)
	}
}

// Current is the one-shot read shared by the list, summary and export endpoints.
func Current(ctx context.Context, svc *transaction.Service) (transaction.Resource, error) {
	ownerID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return transaction.Resource{}, transaction.ErrUnauthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, SettleTimeout)
	defer cancel()

	return svc.Current(ctx, ownerID)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	res, err := Current(r.Context(), h.svc)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, toResourceResponse(res))
}

// stream sends every emission as a server-sent event until the client goes away.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, transaction.ErrUnauthenticated)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch, err := h.svc.ObserveTransactions(r.Context(), ownerID)
	if err != nil {
		respond.Error(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for res := range ch {
		payload, err := json.Marshal(toResourceResponse(res))
		if err != nil {
			slog.Error("failed to encode event", "error", err)
			continue
		}

		if _, err := fmt.Fprintf(w, "event: transactions\ndata: %s\n\n", payload); err != nil {
			return
		}

		flusher.Flush()
	}
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	res, err := Current(r.Context(), h.svc)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, summary.Dashboard(res.Transactions, h.now(), h.trendMonths))
}

type addRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Date        string `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
}

func (h *Handler) add(kind transaction.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.BadRequest(w, err.Error())
			return
		}

		tx, err := h.addTransaction(r.Context(), kind, req)
		if err != nil {
			respond.Error(w, err)
			return
		}

		respond.JSON(w, http.StatusCreated, toResponse(tx))
	}
}

func (h *Handler) addTransaction(ctx context.Context, kind transaction.Kind, req addRequest) (*transaction.Transaction, error) {
	if d := strings.TrimSpace(req.Date); d != "" {
		date, err := time.Parse(transaction.DateLayout, d)
		if err != nil {
			return nil, &transaction.ValidationError{Field: "date", Reason: fmt.Sprintf("%q is not YYYY-MM-DD", d)}
		}

		return h.svc.AddDated(ctx, kind, req.Amount, req.Description, date)
	}

	if kind == transaction.KindExpense {
		return h.svc.AddExpense(ctx, req.Amount, req.Description)
	}

	return h.svc.AddIncome(ctx, req.Amount, req.Description)
}

type syncResponse struct {
	Attempted int `json:"attempted"`
	Synced    int `json:"synced"`
	Failed    int `json:"failed"`
}

func (h *Handler) sync(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		respond.Error(w, transaction.ErrUnauthenticated)
		return
	}

	result, err := h.svc.SyncPendingTransactions(r.Context(), ownerID)
	if err != nil {
		respond.Error(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, syncResponse(result))
}

type simulateErrorsRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *Handler) setSimulateErrors(w http.ResponseWriter, r *http.Request) {
	var req simulateErrorsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	h.svc.SetSimulateErrors(req.Enabled)

	w.WriteHeader(http.StatusNoContent)
}
