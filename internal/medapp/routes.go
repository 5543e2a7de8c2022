package medapp

import "github.com/go-chi/chi/v5"

// Mount registra as rotas do aplicativo do médico.
func Mount(r chi.Router, handler *Handler) {
	handler.RegisterRoutes(r)
}
