package tenant

import (
	"time"

	"github.com/google/uuid"
)

// Tenant representa uma clínica/operadora na plataforma.
type Tenant struct {
	ID           uuid.UUID `json:"id"`
	Slug         string    `json:"slug"`
	Nome         string    `json:"nome"`
	Ativo        bool      `json:"ativo"`
	CriadoEm     time.Time `json:"criado_em"`
	AtualizadoEm time.Time `json:"atualizado_em"`
}

// CreateInput contém os campos necessários para registrar um tenant.
type CreateInput struct {
	Slug string
	Nome string
}
