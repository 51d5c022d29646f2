package httpapi

import (
	"net/http"

	"github.com/orchidcommerce/orchidbe/internal/domain"
)

// RouterConfig собирает зависимости HTTP API.
type RouterConfig struct {
	Orders      *OrderHandler
	Catalog     *CatalogHandler
	Accounts    *AccountHandler
	Identifier  Identifier
	Idempotency domain.IdempotencyRepository
	Health      http.Handler
	Readiness   http.HandlerFunc
}

// NewRouter конструирует маршрутизатор API.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	register := func(pattern, route string, handler http.HandlerFunc, idempotent bool) {
		var h http.Handler = handler
		if idempotent {
			h = Idempotent(cfg.Idempotency, h)
		}
		mux.Handle(pattern, Instrument(route, h))
	}

	// Заказы. Мутации защищены Idempotency-Key.
	register("POST /api/orders", "/api/orders", cfg.Orders.Create, true)
	register("GET /api/orders", "/api/orders", cfg.Orders.ListAll, false)
	register("GET /api/orders/my", "/api/orders/my", cfg.Orders.ListMine, false)
	register("GET /api/orders/{id}", "/api/orders/{id}", cfg.Orders.Get, false)
	register("PUT /api/orders/{id}", "/api/orders/{id}", cfg.Orders.Update, true)
	register("POST /api/orders/{id}/pay", "/api/orders/{id}/pay", cfg.Orders.Pay, true)
	register("DELETE /api/orders/{id}", "/api/orders/{id}", cfg.Orders.Cancel, true)

	// Каталог.
	register("POST /api/orchids", "/api/orchids", cfg.Catalog.CreateOrchid, false)
	register("GET /api/orchids", "/api/orchids", cfg.Catalog.ListOrchids, false)
	register("GET /api/orchids/{id}", "/api/orchids/{id}", cfg.Catalog.GetOrchid, false)
	register("PUT /api/orchids/{id}", "/api/orchids/{id}", cfg.Catalog.UpdateOrchid, false)
	register("DELETE /api/orchids/{id}", "/api/orchids/{id}", cfg.Catalog.DeleteOrchid, false)

	register("POST /api/categories", "/api/categories", cfg.Catalog.CreateCategory, false)
	register("GET /api/categories", "/api/categories", cfg.Catalog.ListCategories, false)
	register("GET /api/categories/{id}", "/api/categories/{id}", cfg.Catalog.GetCategory, false)
	register("PUT /api/categories/{id}", "/api/categories/{id}", cfg.Catalog.UpdateCategory, false)
	register("DELETE /api/categories/{id}", "/api/categories/{id}", cfg.Catalog.DeleteCategory, false)

	// Аккаунты.
	register("POST /api/accounts/register", "/api/accounts/register", cfg.Accounts.Register, false)
	register("POST /api/accounts/login", "/api/accounts/login", cfg.Accounts.Login, false)
	register("GET /api/accounts", "/api/accounts", cfg.Accounts.List, false)
	register("GET /api/accounts/{id}", "/api/accounts/{id}", cfg.Accounts.Get, false)
	register("PATCH /api/accounts/{id}", "/api/accounts/{id}", cfg.Accounts.Update, false)
	register("DELETE /api/accounts/{id}", "/api/accounts/{id}", cfg.Accounts.Delete, false)

	// Роли.
	register("GET /api/roles", "/api/roles", cfg.Accounts.ListRoles, false)
	register("POST /api/roles", "/api/roles", cfg.Accounts.CreateRole, false)
	register("DELETE /api/roles/{id}", "/api/roles/{id}", cfg.Accounts.DeleteRole, false)

	if cfg.Health != nil {
		mux.Handle("GET /healthz", cfg.Health)
	}
	if cfg.Readiness != nil {
		mux.HandleFunc("GET /readyz", cfg.Readiness)
	}

	if cfg.Identifier == nil {
		return mux
	}
	return Authenticate(cfg.Identifier, mux)
}
