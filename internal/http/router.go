package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type Handlers struct {
	Catalog  *CatalogHandler
	Cart     *CartHandler
	Orders   *OrdersHandler
	Payments *PaymentHandler
	Store    *StoreHandler
}

// NewRouter mounts every route. Catalog reads and the gateway return are
// public; everything else needs a bearer token and the service layer decides
// what the actor may do.
func NewRouter(h Handlers, auth *Authenticator, log *zap.Logger, timeout time.Duration) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(RequestID(log))
	r.Use(AccessLog)
	r.Use(middleware.Timeout(timeout))
	r.Use(auth.Middleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/brands", h.Catalog.ListBrands)
		r.Get("/brands/{brand_id}", h.Catalog.GetBrand)
		r.Get("/products", h.Catalog.ListProducts)
		r.Get("/products/{product_id}", h.Catalog.GetProduct)
		r.Get("/shippings", h.Store.ListShippings)
		r.Get("/shippings/{shipping_id}", h.Store.GetShipping)
		r.Get("/vouchers", h.Store.ListVouchers)
		r.Get("/vouchers/{voucher_id}", h.Store.GetVoucher)
		r.Get("/vnpay/return", h.Payments.GatewayReturn)

		r.Group(func(r chi.Router) {
			r.Use(RequireActor)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.Cart.GetCart)
				r.Post("/items", h.Cart.AddItem)
				r.Put("/items/{item_id}", h.Cart.UpdateQuantity)
				r.Delete("/items/{item_id}", h.Cart.RemoveItem)
				r.Post("/complete", h.Cart.CompleteCart)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", h.Orders.PlaceOrder)
				r.Get("/mine", h.Orders.ListMyOrders)
				r.Get("/{order_id}", h.Orders.GetOrder)
				r.Get("/{order_id}/items", h.Orders.OrderItems)
				r.Post("/{order_id}/payment", h.Payments.CreatePayment)
			})

			r.Route("/manager", func(r chi.Router) {
				r.Get("/orders", h.Orders.ListOrders)
				r.Get("/orders/canceled", h.Orders.CanceledOrders)
				r.Get("/orders/totals", h.Orders.CompletedTotals)
				r.Put("/orders/{order_id}/status", h.Orders.AdvanceStatus)
				r.Put("/orders/{order_id}/confirm-delivery", h.Orders.ConfirmDelivery)
				r.Get("/users/{user_id}/orders", h.Orders.ListUserOrders)

				r.Get("/payments", h.Payments.ListPayments)
				r.Get("/payments/total", h.Payments.TotalPayments)

				r.Post("/brands", h.Catalog.CreateBrand)
				r.Put("/brands/{brand_id}", h.Catalog.UpdateBrand)
				r.Delete("/brands/{brand_id}", h.Catalog.DeleteBrand)
				r.Post("/products", h.Catalog.CreateProduct)
				r.Put("/products/{product_id}", h.Catalog.UpdateProduct)
				r.Delete("/products/{product_id}", h.Catalog.DeleteProduct)

				r.Post("/shippings", h.Store.CreateShipping)
				r.Put("/shippings/{shipping_id}", h.Store.UpdateShipping)
				r.Delete("/shippings/{shipping_id}", h.Store.DeleteShipping)

				r.Post("/vouchers", h.Store.CreateVoucher)
				r.Put("/vouchers/{voucher_id}", h.Store.UpdateVoucher)
				r.Patch("/vouchers/{voucher_id}/status", h.Store.ChangeVoucherStatus)
				r.Delete("/vouchers/{voucher_id}", h.Store.DeleteVoucher)
			})
		})
	})

	return r
}
