package master

import (
	"time"

	"github.com/google/uuid"
)

// Master é o administrador do tenant.
type Master struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Nome      string    `json:"nome"`
	Email     string    `json:"email"`
	SenhaHash string    `json:"-"`
	Ativo     bool      `json:"ativo"`
	CriadoEm  time.Time `json:"criado_em"`
}

// CreateInput contém os campos de criação de master.
type CreateInput struct {
	Nome  string
	Email string
	Senha string
}
