package medico

import (
	"time"

	"github.com/google/uuid"
)

// Medico representa um profissional vinculado a um tenant.
type Medico struct {
	ID           uuid.UUID  `json:"id"`
	TenantID     uuid.UUID  `json:"tenant_id"`
	Nome         string     `json:"nome"`
	CPF          string     `json:"cpf"`
	CRM          string     `json:"crm"`
	Email        *string    `json:"email,omitempty"`
	Telefone     *string    `json:"telefone,omitempty"`
	SenhaHash    *string    `json:"-"`
	Ativo        bool       `json:"ativo"`
	CriadoEm     time.Time  `json:"criado_em"`
	AtualizadoEm *time.Time `json:"atualizado_em,omitempty"`
}

// Convite guarda o estado do convite de primeiro acesso (uso único).
type Convite struct {
	TokenHash string
	ExpiraEm  time.Time
}

// CreateInput contém os campos de cadastro de um médico.
type CreateInput struct {
	Nome     string
	CPF      string
	CRM      string
	Email    *string
	Telefone *string
}

// UpdateInput contém os campos mutáveis do cadastro.
type UpdateInput struct {
	Nome     string
	Email    *string
	Telefone *string
}

// Resumo é a projeção usada em listagens de plantões e escalas.
type Resumo struct {
	ID       uuid.UUID `json:"id"`
	Nome     string    `json:"nome"`
	CRM      string    `json:"crm"`
	Email    *string   `json:"email,omitempty"`
	Telefone *string   `json:"telefone,omitempty"`
}
