package auditoria

import (
	"time"

	"github.com/google/uuid"
)

// Registro é uma entrada imutável da trilha de auditoria.
type Registro struct {
	ID       uuid.UUID      `json:"id"`
	TenantID uuid.UUID      `json:"tenant_id"`
	Acao     string         `json:"acao"`
	MedicoID *uuid.UUID     `json:"medico_id,omitempty"`
	MasterID *uuid.UUID     `json:"master_id,omitempty"`
	Detalhes map[string]any `json:"detalhes,omitempty"`
	CriadoEm time.Time      `json:"criado_em"`
}

// Entrada descreve o evento a registrar.
type Entrada struct {
	TenantID uuid.UUID
	Acao     string
	MedicoID *uuid.UUID
	MasterID *uuid.UUID
	Detalhes map[string]any
}
