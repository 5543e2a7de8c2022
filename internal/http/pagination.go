package http

import (
	"net/http"
	"strconv"
)

// Pagination descreve o bloco de paginação das listagens.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ParsePagination lê page e limit da query: page mínimo 1, limit padrão 10
// limitado a [1,100].
func ParsePagination(r *http.Request) (page, limit int) {
	page = 1
	limit = 10

	if raw := r.URL.Query().Get("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 1 {
			page = v
		}
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}

	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

// NewPagination calcula o total de páginas.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// PaginatedEnvelope embute a paginação no bloco de dados.
type PaginatedEnvelope struct {
	Items      any        `json:"items"`
	Pagination Pagination `json:"pagination"`
}
