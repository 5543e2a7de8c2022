package escala

import (
	"time"

	"github.com/google/uuid"

	"github.com/escalamedica/plantao/internal/medico"
)

// Grades de plantão formam um conjunto fechado conhecido do atribuidor.
const (
	GradeManhaTarde = "mt" // 07:00–19:00
	GradeNoite      = "sn" // 19:00–07:00
)

// GradeValida verifica se o identificador pertence ao conjunto fechado.
func GradeValida(gradeID string) bool {
	switch gradeID {
	case GradeManhaTarde, GradeNoite:
		return true
	}
	return false
}

// Escala representa um quadro de plantões vinculado a um contrato ativo.
type Escala struct {
	ID              uuid.UUID `json:"id"`
	TenantID        uuid.UUID `json:"tenant_id"`
	ContratoAtivoID uuid.UUID `json:"contrato_ativo_id"`
	Nome            string    `json:"nome"`
	DataInicio      time.Time `json:"data_inicio"`
	DataFim         time.Time `json:"data_fim"`
	Ativo           bool      `json:"ativo"`
	CriadoEm        time.Time `json:"criado_em"`
}

// Alocacao vincula um médico a uma escala com cargo e valor-hora opcionais.
type Alocacao struct {
	ID        uuid.UUID      `json:"id"`
	TenantID  uuid.UUID      `json:"tenant_id"`
	EscalaID  uuid.UUID      `json:"escala_id"`
	MedicoID  uuid.UUID      `json:"medico_id"`
	Ativo     bool           `json:"ativo"`
	Cargo     *string        `json:"cargo,omitempty"`
	ValorHora *float64       `json:"valor_hora,omitempty"`
	CriadoEm  time.Time      `json:"criado_em"`
	Medico    *medico.Resumo `json:"medico,omitempty"`
}

// Plantao é a célula atribuível (escala, data, grade): um médico por célula.
// O valor-hora gravado é um snapshot; mudanças posteriores na tabela de
// valores não alteram plantões já atribuídos.
type Plantao struct {
	ID        uuid.UUID      `json:"id"`
	TenantID  uuid.UUID      `json:"tenant_id"`
	EscalaID  uuid.UUID      `json:"escala_id"`
	Data      time.Time      `json:"data"`
	GradeID   string         `json:"grade_id"`
	MedicoID  uuid.UUID      `json:"medico_id"`
	ValorHora float64        `json:"valor_hora"`
	CriadoEm  time.Time      `json:"criado_em"`
	Medico    *medico.Resumo `json:"medico,omitempty"`
}

// ValorPlantao é o valor-hora padrão por (contrato, subgrupo, grade).
type ValorPlantao struct {
	ID              uuid.UUID `json:"id"`
	TenantID        uuid.UUID `json:"tenant_id"`
	ContratoAtivoID uuid.UUID `json:"contrato_ativo_id"`
	SubgrupoID      uuid.UUID `json:"subgrupo_id"`
	GradeID         string    `json:"grade_id"`
	ValorHora       float64   `json:"valor_hora"`
}

// EscalaInput contém os campos de criação/edição de escala.
type EscalaInput struct {
	ContratoAtivoID uuid.UUID
	Nome            string
	DataInicio      time.Time
	DataFim         time.Time
}

// AtribuirPlantaoInput descreve a atribuição de uma célula.
type AtribuirPlantaoInput struct {
	Data      time.Time
	GradeID   string
	MedicoID  uuid.UUID
	ValorHora *float64
}

// ReplicarSemanaInput descreve a replicação semanal: o mesmo médico e grade
// atribuídos em cada uma das 7 datas, uma atribuição independente por dia.
type ReplicarSemanaInput struct {
	GradeID   string
	MedicoID  uuid.UUID
	Datas     []time.Time
	ValorHora *float64
}

// DiaReplicacao é o resultado individual da replicação semanal.
type DiaReplicacao struct {
	Data    time.Time `json:"data"`
	Sucesso bool      `json:"sucesso"`
	Erro    string    `json:"erro,omitempty"`
}
