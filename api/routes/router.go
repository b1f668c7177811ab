package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jmflorece/tindahan-pos/api/controllers"
	"github.com/jmflorece/tindahan-pos/api/middleware"
	cartsvc "github.com/jmflorece/tindahan-pos/internal/cart"
	catalogsvc "github.com/jmflorece/tindahan-pos/internal/catalog"
	checkoutsvc "github.com/jmflorece/tindahan-pos/internal/checkout"
	ledgersvc "github.com/jmflorece/tindahan-pos/internal/ledger"
	mediasvc "github.com/jmflorece/tindahan-pos/internal/media"
	reportssvc "github.com/jmflorece/tindahan-pos/internal/reports"
	settingssvc "github.com/jmflorece/tindahan-pos/internal/settings"
	staffsvc "github.com/jmflorece/tindahan-pos/internal/staff"
	"github.com/jmflorece/tindahan-pos/pkg/config"
	"github.com/jmflorece/tindahan-pos/pkg/db"
	"github.com/jmflorece/tindahan-pos/pkg/logger"
	"github.com/jmflorece/tindahan-pos/pkg/redis"
)

// Deps carries everything the HTTP surface needs. Terminal-scoped routes
// additionally require the X-Terminal-Id header.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       *redis.Client
	Carts       *cartsvc.Manager
	CatalogRepo *catalogsvc.Repository
	Catalog     catalogsvc.Service
	Checkout    checkoutsvc.Service
	Ledger      ledgersvc.Service
	Reports     reportssvc.Service
	Settings    settingssvc.Service
	Media       mediasvc.Service
	Staff       staffsvc.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	// Uploaded product images are served straight off disk.
	uploadPrefix := "/" + cfg.Media.UploadDir
	r.Handle(uploadPrefix+"/*", http.StripPrefix(uploadPrefix+"/", http.FileServer(http.Dir(cfg.Media.UploadDir))))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", controllers.AuthLogin(deps.Staff, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			// Terminal middleware runs before Idempotency so the idempotency
			// scope can see the terminal id.
			r.Group(func(r chi.Router) {
				r.Use(middleware.Terminal(logg))
				r.Use(middleware.Idempotency(deps.Redis, logg))

				r.Route("/cart", func(r chi.Router) {
					r.Get("/", controllers.CartFetch(deps.Carts, logg))
					r.Delete("/", controllers.CartClear(deps.Carts, logg))
					r.Post("/items", controllers.CartAdd(deps.Carts, deps.Catalog, logg))
					r.Patch("/items", controllers.CartAdjust(deps.Carts, logg))
					r.Delete("/items/{productId}", controllers.CartRemove(deps.Carts, logg))
				})

				r.Route("/checkout", func(r chi.Router) {
					r.Get("/session", controllers.CheckoutSession(deps.Checkout, logg))
					r.Post("/start", controllers.CheckoutStart(deps.Checkout, logg))
					r.Post("/method", controllers.CheckoutSelectMethod(deps.Checkout, logg))
					r.Post("/confirm", controllers.CheckoutConfirm(deps.Checkout, logg))
					r.Post("/retry", controllers.CheckoutRetryTerminal(deps.Checkout, logg))
					r.Post("/finalize", controllers.CheckoutFinalize(deps.Checkout, logg))
					r.Post("/back", controllers.CheckoutBack(deps.Checkout, logg))
					r.Post("/abort", controllers.CheckoutAbort(deps.Checkout, logg))
					r.Post("/complete", controllers.CheckoutComplete(deps.Checkout, logg))
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.Idempotency(deps.Redis, logg))

				r.Route("/products", func(r chi.Router) {
					r.Get("/", controllers.ProductList(deps.Catalog, logg))
					r.Post("/", controllers.ProductCreate(deps.Catalog, logg))
					r.Get("/low-stock", controllers.ProductLowStock(deps.CatalogRepo, cfg.Inventory.DefaultLowStockThreshold, logg))
					r.Get("/{productId}", controllers.ProductDetail(deps.Catalog, logg))
					r.Patch("/{productId}", controllers.ProductUpdate(deps.Catalog, logg))
					r.Delete("/{productId}", controllers.ProductDelete(deps.Catalog, logg))
					r.Post("/{productId}/stock", controllers.ProductAdjustStock(deps.Catalog, logg))
				})

				r.Route("/categories", func(r chi.Router) {
					r.Get("/", controllers.CategoryList(deps.Catalog, logg))
					r.Post("/", controllers.CategoryCreate(deps.Catalog, logg))
					r.Put("/{categoryId}", controllers.CategoryUpdate(deps.Catalog, logg))
					r.Delete("/{categoryId}", controllers.CategoryDelete(deps.Catalog, logg))
				})

				r.Route("/sales", func(r chi.Router) {
					r.Get("/", controllers.SalesList(deps.Ledger, logg))
					r.Get("/summary", controllers.SalesSummary(deps.Ledger, logg))
					r.Get("/{saleId}", controllers.SaleDetail(deps.Ledger, logg))
					r.Get("/{saleId}/receipt", controllers.SaleReceipt(deps.Ledger, deps.Settings, logg))
				})

				r.Get("/dashboard", controllers.Dashboard(deps.Reports, logg))

				r.Route("/settings", func(r chi.Router) {
					r.Get("/", controllers.SettingsGet(deps.Settings, logg))
					r.Put("/", controllers.SettingsUpdate(deps.Settings, logg))
				})

				r.Route("/uploads", func(r chi.Router) {
					r.Post("/", controllers.UploadCreate(deps.Media, logg))
					r.Delete("/", controllers.UploadDelete(deps.Media, logg))
				})

				r.Route("/staff", func(r chi.Router) {
					r.Get("/", controllers.StaffList(deps.Staff, logg))
					r.Post("/", controllers.StaffCreate(deps.Staff, logg))
					r.Post("/{staffId}/active", controllers.StaffSetActive(deps.Staff, logg))
					r.Post("/{staffId}/pin", controllers.StaffChangePin(deps.Staff, logg))
				})
			})
		})
	})

	return r
}
