package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func pathUUID(r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	return id, err == nil
}

// parseData interpreta datas no formato AAAA-MM-DD.
func parseData(valor string) (time.Time, error) {
	return time.Parse("2006-01-02", valor)
}
