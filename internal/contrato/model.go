package contrato

import (
	"time"

	"github.com/google/uuid"
)

// ContratoAtivo representa um contrato de prestação vigente no tenant.
// Pelo menos um dos usos (escala, ponto) precisa estar habilitado; a regra
// é de aplicação, o schema não a impõe.
type ContratoAtivo struct {
	ID         uuid.UUID  `json:"id"`
	TenantID   uuid.UUID  `json:"tenant_id"`
	Nome       string     `json:"nome"`
	DataInicio time.Time  `json:"data_inicio"`
	DataFim    *time.Time `json:"data_fim,omitempty"`
	Ativo      bool       `json:"ativo"`
	UsaEscala  bool       `json:"usa_escala"`
	UsaPonto   bool       `json:"usa_ponto"`
	CriadoEm   time.Time  `json:"criado_em"`
}

// Subgrupo agrupa médicos dentro do tenant.
type Subgrupo struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	Nome         string    `json:"nome"`
	Descricao    *string   `json:"descricao,omitempty"`
	Ativo        bool      `json:"ativo"`
	TotalMedicos int       `json:"total_medicos"`
	CriadoEm     time.Time `json:"criado_em"`
}

// Equipe é um agrupamento menor, opcionalmente dentro de um subgrupo.
type Equipe struct {
	ID           uuid.UUID  `json:"id"`
	TenantID     uuid.UUID  `json:"tenant_id"`
	SubgrupoID   *uuid.UUID `json:"subgrupo_id,omitempty"`
	Nome         string     `json:"nome"`
	Descricao    *string    `json:"descricao,omitempty"`
	Ativo        bool       `json:"ativo"`
	TotalMedicos int        `json:"total_medicos"`
	CriadoEm     time.Time  `json:"criado_em"`
}

// ContratoInput contém os campos de criação/edição de contrato.
type ContratoInput struct {
	Nome       string
	DataInicio time.Time
	DataFim    *time.Time
	UsaEscala  bool
	UsaPonto   bool
}

// SubgrupoInput contém os campos de criação de subgrupo.
type SubgrupoInput struct {
	Nome      string
	Descricao *string
}

// EquipeInput contém os campos de criação de equipe.
type EquipeInput struct {
	Nome       string
	Descricao  *string
	SubgrupoID *uuid.UUID
}
