package server

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"foyer/internal/core"
	"foyer/internal/service"
)

// ReloadFeed re-reads the whole external feed and replaces the twelve
// month buckets with the result.
func (h *Handler) ReloadFeed(c echo.Context) error {
	store, err := h.store(c)
	if err != nil {
		return err
	}
	if err := h.svc.Reload(c.Request().Context(), store); err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "feed unavailable"})
	}
	return c.JSON(http.StatusOK, store.Snapshot())
}

type FeedRowResponse struct {
	Date      string `json:"date"`
	Type      string `json:"type"`
	OwnerCode string `json:"personne"`
	Category  string `json:"categorie"`
	Amount    string `json:"montant"`
	Account   string `json:"compte"`
	Comment   string `json:"commentaire"`
	MonthName string `json:"mois"`
}

func (h *Handler) ListFeedEntries(c echo.Context) error {
	rows, err := h.svc.Rows(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "feed unavailable"})
	}

	out := make([]FeedRowResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, FeedRowResponse{
			Date:      r.Date,
			Type:      string(r.Type),
			OwnerCode: r.OwnerCode,
			Category:  r.Category,
			Amount:    r.Amount.String(),
			Account:   r.Account,
			Comment:   r.Comment,
			MonthName: r.MonthName,
		})
	}
	return c.JSON(http.StatusOK, out)
}

type SubmitFeedEntryRequest struct {
	Type       string `json:"type" validate:"required"`
	Owner      string `json:"personne" validate:"required,oneof=personne1 personne2 partage"`
	Category   string `json:"categorie" validate:"required"`
	Amount     string `json:"montant" validate:"required"`
	Account    string `json:"compte"`
	Comment    string `json:"commentaire"`
	MonthIndex int    `json:"mois" validate:"min=0,max=11"`
}

// SubmitFeedEntry appends one row to the feed, then reloads the feed
// into the store so the caller sees exactly what the feed accepted.
func (h *Handler) SubmitFeedEntry(c echo.Context) error {
	store, err := h.store(c)
	if err != nil {
		return err
	}

	var req SubmitFeedEntryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	in := service.EntryInput{
		Type:       core.FeedType(req.Type),
		Owner:      core.Owner(req.Owner),
		Category:   req.Category,
		Amount:     req.Amount,
		Account:    req.Account,
		Comment:    req.Comment,
		MonthIndex: req.MonthIndex,
	}
	if err := h.svc.SubmitEntry(c.Request().Context(), store, in); err != nil {
		return badRequest(c, err.Error())
	}
	return c.JSON(http.StatusCreated, store.Snapshot().Months[req.MonthIndex])
}

func (h *Handler) Export(c echo.Context) error {
	store, err := h.store(c)
	if err != nil {
		return err
	}
	data, err := store.Export()
	if err != nil {
		return serverError(c)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="foyer-export.json"`)
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, data)
}

func (h *Handler) Import(c echo.Context) error {
	store, err := h.store(c)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(io.LimitReader(c.Request().Body, 8<<20))
	if err != nil {
		return badRequest(c, "read import")
	}
	if err := store.Import(c.Request().Context(), data); err != nil {
		return badRequest(c, "invalid import file")
	}
	return c.JSON(http.StatusOK, store.Snapshot())
}

type StatusResponse struct {
	SnapshotBackend string `json:"backendInstantane"`
	FeedBackend     string `json:"backendFlux"`
	SyncError       string `json:"erreurSync,omitempty"`
}

// Status reports the configured backends and whether the in-memory
// state is ahead of the persistence backend.
func (h *Handler) Status(c echo.Context) error {
	store, err := h.store(c)
	if err != nil {
		return err
	}

	resp := StatusResponse{
		SnapshotBackend: h.snapshotBackend,
		FeedBackend:     h.feedBackend,
	}
	if err := store.SyncErr(); err != nil {
		resp.SyncError = err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}
