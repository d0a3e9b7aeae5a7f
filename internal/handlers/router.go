package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"ticketcore/internal/middleware"
	"ticketcore/internal/services"
)

// NewRouter wires every handler into the HTTP surface. Anonymous requests
// can browse the catalogue; purchasing requires a principal; scanning and
// the journal are staff operations; voiding tickets and reversing
// transactions are admin operations.
func NewRouter(
	inventory *services.InventoryService,
	cart *services.CartService,
	checkout *services.CheckoutService,
	scanner *services.ScannerService,
	ledger *services.LedgerService,
	buyers services.BuyerRepository,
	resolver middleware.PrincipalResolver,
	logger *slog.Logger,
) http.Handler {
	inventoryHandler := NewInventoryHandler(inventory, buyers)
	cartHandler := NewCartHandler(cart, buyers)
	checkoutHandler := NewCheckoutHandler(checkout)
	scannerHandler := NewScannerHandler(scanner)
	ledgerHandler := NewLedgerHandler(ledger)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.LoadPrincipal(resolver))

	r.Get("/health", Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/events", inventoryHandler.ListEvents)
		r.Get("/events/{eventID}/availability", inventoryHandler.Availability)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequirePrincipal)
			r.Post("/inventory/reserve", inventoryHandler.Reserve)
			r.Post("/inventory/release", inventoryHandler.Release)
			r.Get("/cart", cartHandler.GetCart)
			r.Post("/cart/items", cartHandler.AddItem)
			r.Delete("/cart", cartHandler.ClearCart)
			r.Post("/checkout", checkoutHandler.Checkout)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireStaff)
			r.Post("/scan", scannerHandler.Scan)
			r.Get("/scan-log", scannerHandler.ScanLog)
			r.Get("/scan-log/summary", scannerHandler.Summary)
			r.Post("/transactions", ledgerHandler.PostTransaction)
			r.Get("/transactions", ledgerHandler.ListTransactions)
			r.Get("/accounts", ledgerHandler.ListAccounts)
			r.Get("/reports/{reportType}", ledgerHandler.Report)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Post("/tickets/{ticketID}/void", scannerHandler.Void)
			r.Post("/transactions/{txnID}/reverse", ledgerHandler.Reverse)
		})
	})

	return r
}
