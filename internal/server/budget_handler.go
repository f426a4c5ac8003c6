package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"foyer/internal/auth"
	"foyer/internal/budget"
	"foyer/internal/core"
	"foyer/internal/service"
)

// Handler serves the budget, settings, feed and export routes.
type Handler struct {
	manager *budget.Manager
	svc     *service.BudgetService

	snapshotBackend string
	feedBackend     string
}

func (h *Handler) store(c echo.Context) (*budget.Store, error) {
	userID, ok := auth.UserIDFromContext(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing user")
	}
	store, err := h.manager.Store(c.Request().Context(), userID)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "open budget store")
	}
	return store, nil
}

func monthParam(c echo.Context) (int, bool) {
	m, err := strconv.Atoi(c.Param("month"))
	if err != nil || m < 0 || m >= core.MonthsPerYear {
		return 0, false
	}
	return m, true
}

// ExpenseRequest is one expense in wire form, the amount still a
// string so "12,50" and "12.50" both parse.
type ExpenseRequest struct {
	ID           string `json:"id"`
	Category     string `json:"categorie" validate:"required"`
	Amount       string `json:"montant" validate:"required"`
	Description  string `json:"description"`
	Owner        string `json:"personne" validate:"required,oneof=personne1 personne2 partage"`
	Kind         string `json:"type" validate:"required,oneof=variable fixe"`
	RecurrenceID string `json:"recurrence_id"`
}

func (r ExpenseRequest) toEntry() (core.ExpenseEntry, error) {
	amount, err := core.ParseAmount(r.Amount)
	if err != nil {
		return core.ExpenseEntry{}, err
	}
	description := r.Description
	if description == "" {
		description = r.Category
	}
	return core.ExpenseEntry{
		ID:           r.ID,
		Category:     r.Category,
		Amount:       amount,
		Description:  description,
		Owner:        core.Owner(r.Owner),
		Kind:         core.ExpenseKind(r.Kind),
		RecurrenceID: r.RecurrenceID,
	}, nil
}

func (h *Handler) GetBudget(c echo.Context) error {
	store, err := h.store(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, store.Snapshot())
}

func (h *Handler) MonthTotals(c echo.Context) error {
	store, err := h.store(c)
	if err != nil {
		return err
	}
	m, ok := monthParam(c)
	if !ok {
		return badRequest(c, "invalid month")
	}
	return c.JSON(http.StatusOK, store.MonthlyTotals(m))
}

func (h *Handler) UpdateMonth(c echo.Context) error {
	store, err := h.store(c)
	if err != nil {
		return err
	}
	m, ok := monthParam(c)
	if !ok {
		return badRequest(c, "invalid month")
	}

	var patch budget.MonthPatch
	if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := store.UpdateMonth(c.Request().Context(), m, patch); err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(http.StatusOK, store.Snapshot().Months[m])
}

type AddExpenseResponse struct {
	Entry            core.ExpenseEntry `json:"entree"`
	PropagatedMonths []int             `json:"moisPropagation,omitempty"`
}

func (h *Handler) AddExpense(c echo.Context) error {
	store, err := h.store(c)
	if err != nil {
		return err
	}
	m, ok := monthParam(c)
	if !ok {
		return badRequest(c, "invalid month")
	}

	var req ExpenseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}
	entry, err := req.toEntry()
	if err != nil {
		return badRequest(c, err.Error())
	}

	added, err := store.AddExpense(c.Request().Context(), m, entry)
	if err != nil {
		return badRequest(c, err.Error())
	}

	resp := AddExpenseResponse{Entry: added}
	if c.QueryParam("propagate") == "true" && added.Kind == core.KindFixed {
		months := store.ProposeFixedExpensePropagation(m, added)
		if err := store.ApplyFixedExpensePropagation(c.Request().Context(), months, added); err != nil {
			return badRequest(c, err.Error())
		}
		resp.PropagatedMonths = months
	}
	return c.JSON(http.StatusCreated, resp)
}

type PropagationResponse struct {
	Months []int `json:"mois"`
}

// ProposePropagation lists the months a fixed expense would be copied
// to, without changing anything.
func (h *Handler) ProposePropagation(c echo.Context) error {
	store, err := h.store(c)
	if err != nil {
		return err
	}
	m, ok := monthParam(c)
	if !ok {
		return badRequest(c, "invalid month")
	}

	var req ExpenseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	entry, err := req.toEntry()
	if err != nil {
		return badRequest(c, err.Error())
	}

	return c.JSON(http.StatusOK, PropagationResponse{Months: store.ProposeFixedExpensePropagation(m, entry)})
}

type ApplyPropagationRequest struct {
	Entry  ExpenseRequest `json:"entree"`
	Months []int          `json:"mois"`
}

func (h *Handler) ApplyPropagation(c echo.Context) error {
	store, err := h.store(c)
	if err != nil {
		return err
	}
	if _, ok := monthParam(c); !ok {
		return badRequest(c, "invalid month")
	}

	var req ApplyPropagationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	entry, err := req.Entry.toEntry()
	if err != nil {
		return badRequest(c, err.Error())
	}

	if err := store.ApplyFixedExpensePropagation(c.Request().Context(), req.Months, entry); err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(http.StatusOK, PropagationResponse{Months: req.Months})
}

type UpdateSeriesRequest struct {
	OriginMonth int            `json:"moisOrigine"`
	Months      []int          `json:"mois"`
	Before      ExpenseRequest `json:"avant"`
	After       ExpenseRequest `json:"apres"`
}

// UpdateSeries replicates an edit of a fixed expense onto its copies
// in the other months. Without an explicit month list, all months
// carrying the series are updated.
func (h *Handler) UpdateSeries(c echo.Context) error {
	store, err := h.store(c)
	if err != nil {
		return err
	}

	var req UpdateSeriesRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	before, err := req.Before.toEntry()
	if err != nil {
		return badRequest(c, err.Error())
	}
	after, err := req.After.toEntry()
	if err != nil {
		return badRequest(c, err.Error())
	}

	months := req.Months
	if months == nil {
		months = store.ProposeFixedExpenseUpdate(req.OriginMonth, before)
	}
	if err := store.ApplyFixedExpenseUpdate(c.Request().Context(), months, before, after); err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(http.StatusOK, PropagationResponse{Months: months})
}

type RemoveSeriesRequest struct {
	Entry  ExpenseRequest `json:"entree"`
	Months []int          `json:"mois"`
}

// RemoveSeries deletes a fixed expense's copies from the given months,
// or from every month carrying the series when no list is given.
func (h *Handler) RemoveSeries(c echo.Context) error {
	store, err := h.store(c)
	if err != nil {
		return err
	}

	var req RemoveSeriesRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	entry, err := req.Entry.toEntry()
	if err != nil {
		return badRequest(c, err.Error())
	}

	months := req.Months
	if months == nil {
		months = store.ProposeFixedExpenseRemoval(entry)
	}
	if err := store.ApplyFixedExpenseRemoval(c.Request().Context(), months, entry); err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(http.StatusOK, PropagationResponse{Months: months})
}

type ToggleHealthResponse struct {
	Reimbursed bool `json:"rembourse"`
}

func (h *Handler) ToggleHealthReimbursed(c echo.Context) error {
	store, err := h.store(c)
	if err != nil {
		return err
	}
	m, ok := monthParam(c)
	if !ok {
		return badRequest(c, "invalid month")
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		return badRequest(c, "invalid entry index")
	}

	reimbursed, err := store.ToggleHealthReimbursed(c.Request().Context(), m, index)
	if err != nil {
		if errors.Is(err, core.ErrInvalidMonth) {
			return badRequest(c, "invalid month")
		}
		return notFound(c, "health entry not found")
	}
	return c.JSON(http.StatusOK, ToggleHealthResponse{Reimbursed: reimbursed})
}

func (h *Handler) UpdatePersons(c echo.Context) error {
	store, err := h.store(c)
	if err != nil {
		return err
	}

	var persons core.Persons
	if err := c.Bind(&persons); err != nil {
		return badRequest(c, "invalid payload")
	}
	if persons.Person1.Name == "" || persons.Person2.Name == "" {
		return badRequest(c, "both partner names are required")
	}

	store.UpdatePersons(c.Request().Context(), persons)
	return c.JSON(http.StatusOK, store.Snapshot().Persons)
}

type UpdateCurrencyRequest struct {
	Currency string `json:"devise" validate:"required"`
}

func (h *Handler) UpdateCurrency(c echo.Context) error {
	store, err := h.store(c)
	if err != nil {
		return err
	}

	var req UpdateCurrencyRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	store.UpdateCurrency(c.Request().Context(), req.Currency)
	return c.JSON(http.StatusOK, map[string]string{"devise": req.Currency})
}

type UpdateBankAccountsRequest struct {
	Accounts []core.BankAccount `json:"comptesBancaires"`
}

func (h *Handler) UpdateBankAccounts(c echo.Context) error {
	store, err := h.store(c)
	if err != nil {
		return err
	}

	var req UpdateBankAccountsRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if len(req.Accounts) > core.MaxBankAccounts {
		return badRequest(c, "too many bank accounts")
	}

	store.UpdateBankAccounts(c.Request().Context(), req.Accounts)
	return c.JSON(http.StatusOK, store.Snapshot().BankAccounts)
}
