package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/orderchat/orderchat-backend/api/controllers"
	"github.com/orderchat/orderchat-backend/api/middleware"
	"github.com/orderchat/orderchat-backend/pkg/config"
	"github.com/orderchat/orderchat-backend/pkg/logger"
)

// RouterParams carry everything the public API surface depends on.
type RouterParams struct {
	Config    *config.Config
	Logger    *logger.Logger
	Verifier  controllers.PayloadVerifier
	Forwarder controllers.EventForwarder
	AIOrders  controllers.AIOrderService
	Shipping  controllers.ShippingSettingsService
	Warehouse controllers.WarehouseService
	Readiness map[string]controllers.Pinger
}

// NewRouter assembles the public API service.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.Readiness))
	})

	r.Route("/webhook", func(r chi.Router) {
		r.Get("/", controllers.WebhookVerify(cfg.Webhook.VerifyToken, logg))
		r.Post("/", controllers.WebhookReceive(params.Verifier, params.Forwarder, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/ai-orders", func(r chi.Router) {
			r.Post("/", controllers.AIOrderCreate(params.AIOrders, logg))
			r.Get("/", controllers.AIOrderList(params.AIOrders, logg))
			r.Post("/map", controllers.AIOrderMap(params.AIOrders, logg))
			r.Delete("/map", controllers.AIOrderUnmap(params.AIOrders, logg))
			r.Get("/{aiOrderId}", controllers.AIOrderDetail(params.AIOrders, logg))
			r.Patch("/{aiOrderId}", controllers.AIOrderPatch(params.AIOrders, logg))
		})

		r.Route("/settings/shipping", func(r chi.Router) {
			r.Get("/", controllers.ShippingSettingsGet(params.Shipping, logg))
			r.With(middleware.AdminAuth(cfg.JWT, logg)).Put("/", controllers.ShippingSettingsUpdate(params.Shipping, logg))
		})

		r.Route("/wms/picking-status", func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.JWT, logg))
			r.Post("/", controllers.WMSPickingStatusSync(params.Warehouse, logg))
			r.Get("/", controllers.WMSPickingStatusCached(params.Warehouse, logg))
		})
	})

	return r
}
