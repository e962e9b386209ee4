package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rl1809/shopy/internal/core/domain"
	"github.com/rl1809/shopy/internal/core/service"
)

type cartResponse struct {
	Lines []domain.CartLine `json:"lines"`
	Total int64             `json:"total"`
}

type addLineRequest struct {
	ShopID    string `json:"shop_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func writeCart(w http.ResponseWriter, cart *service.CartOrderStore) {
	lines := cart.Lines()
	if lines == nil {
		lines = []domain.CartLine{}
	}
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    cartResponse{Lines: lines, Total: cart.ComputeTotal()},
	})
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeCart(w, session(r).Cart)
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	cart := session(r).Cart
	cart.Clear()
	writeCart(w, cart)
}

func (h *HTTPHandler) AddCartLine(w http.ResponseWriter, r *http.Request) {
	var req addLineRequest
	if !decode(w, r, &req) {
		return
	}

	shop, product, err := h.svc.Directory.Product(req.ShopID, req.ProductID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	cart := session(r).Cart
	if err := cart.AddLine(service.LineFromProduct(product, shop.Name, req.Quantity)); err != nil {
		h.writeError(w, err)
		return
	}
	writeCart(w, cart)
}

func (h *HTTPHandler) RemoveCartLine(w http.ResponseWriter, r *http.Request) {
	cart := session(r).Cart
	cart.RemoveLine(mux.Vars(r)["productId"])
	writeCart(w, cart)
}

// PlaceOrder checks out the cart. The Idempotency-Key header, when present,
// makes retries of the same request safe.
func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.svc.Orders.Checkout(r.Context(), session(r), r.Header.Get("Idempotency-Key"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Response{
		Success: true,
		Message: "order placed successfully",
		Data:    order,
	})
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := session(r).Cart.ListOrders(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: orders})
}

type transactionsResponse struct {
	Transactions []domain.Transaction      `json:"transactions"`
	Summary      domain.TransactionSummary `json:"summary"`
}

func (h *HTTPHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	orders, err := session(r).Cart.ListOrders(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	txns := service.Ledger(orders)
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data:    transactionsResponse{Transactions: txns, Summary: service.Summarize(txns)},
	})
}

type shopsResponse struct {
	Categories []string      `json:"categories"`
	Shops      []domain.Shop `json:"shops"`
}

func (h *HTTPHandler) ListShops(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, Response{
		Success: true,
		Data: shopsResponse{
			Categories: h.svc.Directory.Categories(),
			Shops:      h.svc.Directory.FilterShops(q.Get("search"), q.Get("category")),
		},
	})
}

func (h *HTTPHandler) GetShop(w http.ResponseWriter, r *http.Request) {
	shop, err := h.svc.Directory.Shop(mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: shop})
}

func (h *HTTPHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Directory.SearchProducts(mux.Vars(r)["id"], r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: products})
}

func (h *HTTPHandler) ListVendorProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.Catalog.ListProducts(r.Context(), &session(r).Account)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if products == nil {
		products = []domain.Product{}
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: products})
}

func (h *HTTPHandler) AddVendorProduct(w http.ResponseWriter, r *http.Request) {
	var in service.ProductInput
	if !decode(w, r, &in) {
		return
	}
	product, err := h.svc.Catalog.AddProduct(r.Context(), &session(r).Account, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Response{Success: true, Data: product})
}

func (h *HTTPHandler) UpdateVendorProduct(w http.ResponseWriter, r *http.Request) {
	var in service.ProductInput
	if !decode(w, r, &in) {
		return
	}
	product, err := h.svc.Catalog.UpdateProduct(r.Context(), &session(r).Account, mux.Vars(r)["id"], in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: product})
}

func (h *HTTPHandler) DeleteVendorProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Catalog.DeleteProduct(r.Context(), &session(r).Account, mux.Vars(r)["id"]); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "product deleted"})
}

func (h *HTTPHandler) VendorStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Catalog.Stats(r.Context(), &session(r).Account)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Data: stats})
}
