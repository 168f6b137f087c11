package product

import (
	"net/http"

	"store-api/internal/auth"
)

func (h *Handler) Routes(mux *http.ServeMux, gate *auth.Gate) {
	admin := func(fn http.HandlerFunc) http.Handler {
		return gate.Require(auth.RequireAdmin(fn))
	}

	mux.HandleFunc("GET /api/v1/product/all", h.ListProducts)
	mux.HandleFunc("GET /api/v1/product/get/{id}", h.GetProduct)
	mux.Handle("POST /api/v1/product/create", admin(h.CreateProduct))
	mux.Handle("PUT /api/v1/product/update/{id}", admin(h.UpdateProduct))
	mux.Handle("DELETE /api/v1/product/delete/{id}", admin(h.DeleteProduct))
}
