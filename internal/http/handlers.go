package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/maicon-romano/previzi/internal/core"
	"github.com/maicon-romano/previzi/internal/export"
	"github.com/maicon-romano/previzi/internal/services"
	"github.com/maicon-romano/previzi/internal/storage"
)

// transactionRequest is the JSON body for creating a transaction. Amounts
// travel as decimal strings ("123.45") and dates as YYYY-MM-DD.
type transactionRequest struct {
	Type             string  `json:"type"`
	Amount           *string `json:"amount,omitempty"`
	Category         string  `json:"category"`
	Description      string  `json:"description"`
	Source           string  `json:"source,omitempty"`
	Date             string  `json:"date"`
	Status           string  `json:"status"`
	Recurring        bool    `json:"recurring"`
	IsVariableAmount bool    `json:"isVariableAmount"`
	RecurringType    string  `json:"recurringType,omitempty"`
	RecurringMonths  *int    `json:"recurringMonths,omitempty"`
	RecurringEndDate *string `json:"recurringEndDate,omitempty"`
}

func (req transactionRequest) toTransaction(userID string) (core.Transaction, error) {
	date, err := parseDate(req.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, req.Date)
	}

	tx := core.Transaction{
		ID:               uuid.NewString(),
		UserID:           userID,
		Type:             core.TransactionType(req.Type),
		Category:         sanitizeInput(req.Category),
		Description:      sanitizeInput(req.Description),
		Source:           sanitizeInput(req.Source),
		Status:           core.Status(req.Status),
		Recurring:        req.Recurring,
		IsVariableAmount: req.IsVariableAmount,
		RecurringKind:    core.RecurrenceKind(req.RecurringType),
		RecurringMonths:  req.RecurringMonths,
	}
	if tx.Status == "" {
		tx.Status = core.Pending
	}
	tx.SetDate(date)

	if req.Amount != nil {
		cents, err := core.ParseDecimalToCents(*req.Amount)
		if err != nil {
			return core.Transaction{}, err
		}
		tx.Amount = &core.Money{Cents: cents}
	}
	if req.RecurringEndDate != nil {
		end, err := parseDate(*req.RecurringEndDate)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, *req.RecurringEndDate)
		}
		tx.RecurringEndDate = &end
	}
	return tx, nil
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusBadRequest, "missing "+userIDHeader+" header")
		return
	}

	switch r.Method {
	case http.MethodPost:
		s.createTransaction(w, r, uid)
	case http.MethodGet:
		s.listMonth(w, r, uid)
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request, uid string) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	tx, err := req.toTransaction(uid)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	if tx.Recurring {
		batch, err := s.series.Materialize(r.Context(), tx)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		s.projector.Invalidate(uid)
		respondJSON(w, http.StatusCreated, batch)
		return
	}

	if err := tx.Validate(); err != nil {
		respondServiceError(w, err)
		return
	}
	if _, err := s.store.CreateInstances(r.Context(), []core.Transaction{tx}); err != nil {
		respondServiceError(w, err)
		return
	}
	s.projector.Invalidate(uid)
	respondJSON(w, http.StatusCreated, tx)
}

// listMonth returns the month's transactions, materializing any infinite
// series instances the month is still missing.
func (s *Server) listMonth(w http.ResponseWriter, r *http.Request, uid string) {
	year, month := parseYearMonth(r)

	if _, err := s.series.EnsureMonth(r.Context(), uid, year, month); err != nil {
		respondServiceError(w, err)
		return
	}
	txs, err := s.store.GetTransactionsForMonth(r.Context(), uid, year, month)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, txs)
}

// updateRequest carries a partial edit of a single instance. Setting an
// amount marks the instance as manually edited so later series-wide
// updates leave it alone.
type updateRequest struct {
	Amount      *string `json:"amount,omitempty"`
	Status      *string `json:"status,omitempty"`
	Date        *string `json:"date,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusBadRequest, "missing "+userIDHeader+" header")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	if id == "" || strings.Contains(id, "/") {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodPatch:
		s.updateTransaction(w, r, uid, id)
	case http.MethodDelete:
		s.deleteTransaction(w, r, uid, id)
	default:
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request, uid, id string) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	update := storage.InstanceUpdate{ID: id}
	if req.Amount != nil {
		cents, err := core.ParseDecimalToCents(*req.Amount)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		update.Amount = &core.Money{Cents: cents}
		edited := true
		update.ManuallyEdited = &edited
	}
	if req.Status != nil {
		status := core.Status(*req.Status)
		if status != core.Paid && status != core.Pending {
			respondServiceError(w, core.ErrInvalidStatus)
			return
		}
		update.Status = &status
	}
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			respondServiceError(w, fmt.Errorf("%w: %q", core.ErrInvalidDate, *req.Date))
			return
		}
		update.Date = &date
	}
	if req.Description != nil {
		desc := sanitizeInput(*req.Description)
		if desc == "" {
			respondServiceError(w, core.ErrEmptyDescription)
			return
		}
		update.Description = &desc
	}

	if err := s.store.UpdateInstances(r.Context(), uid, []storage.InstanceUpdate{update}); err != nil {
		respondServiceError(w, err)
		return
	}
	s.projector.Invalidate(uid)

	tx, err := s.store.GetTransaction(r.Context(), uid, id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tx)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request, uid, id string) {
	scope := core.DeleteScope(r.URL.Query().Get("scope"))
	if scope == "" {
		scope = core.ScopeCurrent
	}

	deleted, err := s.series.DeleteScoped(r.Context(), uid, id, scope, time.Now())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.projector.Invalidate(uid)
	respondJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
}

// baseValueRequest is the JSON body for a series-wide amount update.
type baseValueRequest struct {
	NewAmount       string `json:"newAmount"`
	OverwriteEdited bool   `json:"overwriteEdited"`
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusBadRequest, "missing "+userIDHeader+" header")
		return
	}
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/series/")
	groupID, op, ok := strings.Cut(rest, "/")
	if !ok || op != "amount" || groupID == "" {
		respondError(w, http.StatusNotFound, "not found")
		return
	}

	var req baseValueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	cents, err := core.ParseDecimalToCents(req.NewAmount)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	updated, err := s.series.UpdateBaseValue(r.Context(), uid, groupID, core.Money{Cents: cents}, req.OverwriteEdited, time.Now())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	s.projector.Invalidate(uid)
	respondJSON(w, http.StatusOK, map[string]int{"updated": updated})
}

// projectionRequest is the JSON body for a projection computation.
type projectionRequest struct {
	PeriodMonths    int              `json:"periodMonths"`
	StartingBalance string           `json:"startingBalance,omitempty"`
	Simulations     []simulationItem `json:"simulations,omitempty"`
}

type simulationItem struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Amount      string  `json:"amount"`
	Start       string  `json:"start"`
	End         *string `json:"end,omitempty"`
	Enabled     bool    `json:"enabled"`
}

func (req projectionRequest) toServiceRequest() (services.ProjectionRequest, error) {
	out := services.ProjectionRequest{PeriodMonths: req.PeriodMonths}
	if out.PeriodMonths == 0 {
		out.PeriodMonths = 12
	}

	if req.StartingBalance != "" {
		cents, err := core.ParseDecimalToCents(req.StartingBalance)
		if err != nil {
			return out, err
		}
		out.StartingBalance = core.Money{Cents: cents}
	}

	for _, sim := range req.Simulations {
		cents, err := core.ParseDecimalToCents(sim.Amount)
		if err != nil {
			return out, err
		}
		start, err := parseDate(sim.Start)
		if err != nil {
			return out, fmt.Errorf("%w: %q", core.ErrInvalidDate, sim.Start)
		}
		item := core.SimulatedItem{
			ID:          sim.ID,
			Type:        core.TransactionType(sim.Type),
			Description: sanitizeInput(sim.Description),
			Amount:      core.Money{Cents: cents},
			Start:       start,
			Enabled:     sim.Enabled,
		}
		if sim.End != nil {
			end, err := parseDate(*sim.End)
			if err != nil {
				return out, fmt.Errorf("%w: %q", core.ErrInvalidDate, *sim.End)
			}
			item.End = &end
		}
		out.Simulations = append(out.Simulations, item)
	}
	return out, nil
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusBadRequest, "missing "+userIDHeader+" header")
		return
	}
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req projectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	svcReq, err := req.toServiceRequest()
	if err != nil {
		respondServiceError(w, err)
		return
	}

	result, err := s.projector.Project(r.Context(), uid, svcReq, time.Now())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleProjectionExport(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)
	if uid == "" {
		respondError(w, http.StatusBadRequest, "missing "+userIDHeader+" header")
		return
	}
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	req := services.ProjectionRequest{PeriodMonths: 12}
	if v := r.URL.Query().Get("months"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.PeriodMonths = n
		}
	}
	if v := r.URL.Query().Get("startingBalance"); v != "" {
		cents, err := core.ParseDecimalToCents(v)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		req.StartingBalance = core.Money{Cents: cents}
	}

	result, err := s.projector.Project(r.Context(), uid, req, time.Now())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	f, err := export.ProjectionWorkbook(result)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="projection.xlsx"`)
	if err := f.Write(w); err != nil {
		slog.ErrorContext(r.Context(), "Failed to stream workbook", "error", err)
	}
}
