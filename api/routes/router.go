package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/storefront-backend/api/controllers"
	"github.com/angelmondragon/storefront-backend/api/middleware"
	addresssvc "github.com/angelmondragon/storefront-backend/internal/address"
	authsvc "github.com/angelmondragon/storefront-backend/internal/auth"
	cartsvc "github.com/angelmondragon/storefront-backend/internal/cart"
	catalogsvc "github.com/angelmondragon/storefront-backend/internal/catalog"
	ordersvc "github.com/angelmondragon/storefront-backend/internal/orders"
	settingssvc "github.com/angelmondragon/storefront-backend/internal/settings"
	usersvc "github.com/angelmondragon/storefront-backend/internal/users"
	wishlistsvc "github.com/angelmondragon/storefront-backend/internal/wishlist"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        controllers.Pinger
	Redis     *pkgredis.Client
	Metrics   *metrics.HTTPMetrics
	Gatherer  prometheus.Gatherer
	Auth      authsvc.Service
	Users     usersvc.Repository
	Catalog   catalogsvc.Service
	Cart      cartsvc.Service
	Orders    ordersvc.Service
	Addresses addresssvc.Service
	Wishlist  wishlistsvc.Service
	Settings  settingssvc.Service
}

// NewRouter wires middleware and route groups for the storefront API.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})
	if deps.Gatherer != nil {
		r.Get("/metrics", metrics.Handler(deps.Gatherer).ServeHTTP)
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.Idempotency(deps.Redis, cfg.Store.IdempotencyTTL, logg)).
			Post("/register", controllers.Register(deps.Auth, logg))
		r.Post("/login", controllers.Login(deps.Auth, logg))
	})

	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", controllers.ProductList(deps.Catalog, logg))
		r.Get("/{productID}", controllers.ProductDetail(deps.Catalog, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(deps.Redis, cfg.Store.IdempotencyTTL, logg))

		r.Get("/me", controllers.Me(deps.Users, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartGet(deps.Cart, logg))
			r.Post("/items", controllers.CartAddItem(deps.Cart, logg))
			r.Put("/items/{itemID}", controllers.CartUpdateItem(deps.Cart, logg))
			r.Delete("/items/{itemID}", controllers.CartRemoveItem(deps.Cart, logg))
			r.Delete("/", controllers.CartClear(deps.Cart, logg))
			r.Put("/sync", controllers.CartSync(deps.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(deps.Orders, logg))
			r.Post("/checkout", controllers.OrderCheckout(deps.Orders, logg))
			r.Get("/", controllers.OrderList(deps.Orders, logg))
			r.Get("/{orderID}", controllers.OrderDetail(deps.Orders, logg))
			r.Post("/{orderID}/cancel", controllers.OrderCancel(deps.Orders, logg))
		})

		r.Route("/addresses", func(r chi.Router) {
			r.Get("/", controllers.AddressList(deps.Addresses, logg))
			r.Put("/{addressType}", controllers.AddressUpsert(deps.Addresses, logg))
			r.Delete("/{addressType}", controllers.AddressDelete(deps.Addresses, logg))
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Get("/", controllers.WishlistList(deps.Wishlist, logg))
			r.Post("/", controllers.WishlistAdd(deps.Wishlist, logg))
			r.Delete("/{productID}", controllers.WishlistRemove(deps.Wishlist, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminOrderList(deps.Orders, logg))
			r.Get("/dashboard", controllers.AdminOrderDashboard(deps.Orders, logg))
			r.Put("/{orderID}/status", controllers.AdminOrderSetStatus(deps.Orders, logg))
			r.Put("/{orderID}/payment-status", controllers.AdminOrderSetPaymentStatus(deps.Orders, logg))
			r.Delete("/{orderID}", controllers.AdminOrderDelete(deps.Orders, logg))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", controllers.AdminSettingsGet(deps.Settings, logg))
			r.Put("/", controllers.AdminSettingsSet(deps.Settings, logg))
			r.Delete("/{key}", controllers.AdminSettingsDelete(deps.Settings, logg))
		})
	})

	return r
}
