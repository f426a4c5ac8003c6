package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func registerRoutes(
	e *echo.Echo,
	h *Handler,
	authHandler *AuthHandler,
	userMiddleware echo.MiddlewareFunc,
	authRateLimiter echo.MiddlewareFunc,
) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")

	if authHandler != nil {
		authGroup := api.Group("/auth", authRateLimiter)
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
	}

	b := api.Group("/budget", userMiddleware)
	b.GET("", h.GetBudget)
	b.GET("/months/:month/totals", h.MonthTotals)
	b.PUT("/months/:month", h.UpdateMonth)
	b.POST("/months/:month/expenses", h.AddExpense)
	b.POST("/months/:month/expenses/propagation/propose", h.ProposePropagation)
	b.POST("/months/:month/expenses/propagation/apply", h.ApplyPropagation)
	b.POST("/expenses/series/update", h.UpdateSeries)
	b.POST("/expenses/series/remove", h.RemoveSeries)
	b.PATCH("/months/:month/health/:index", h.ToggleHealthReimbursed)

	settings := api.Group("/settings", userMiddleware)
	settings.PUT("/persons", h.UpdatePersons)
	settings.PUT("/currency", h.UpdateCurrency)
	settings.PUT("/accounts", h.UpdateBankAccounts)

	f := api.Group("/feed", userMiddleware)
	f.POST("/reload", h.ReloadFeed)
	f.GET("/entries", h.ListFeedEntries)
	f.POST("/entries", h.SubmitFeedEntry)

	api.GET("/export", h.Export, userMiddleware)
	api.POST("/import", h.Import, userMiddleware)
	api.GET("/status", h.Status, userMiddleware)
}
