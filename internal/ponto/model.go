package ponto

import (
	"time"

	"github.com/google/uuid"
)

// OrigemAppMedico marca registros criados pelo próprio médico no aplicativo.
const OrigemAppMedico = "APP_MEDICO"

// RegistroPonto é o registro de presença do médico. No máximo um registro
// aberto (check_out_at nulo) por médico a qualquer momento.
type RegistroPonto struct {
	ID             uuid.UUID  `json:"id"`
	TenantID       uuid.UUID  `json:"tenant_id"`
	MedicoID       uuid.UUID  `json:"medico_id"`
	EscalaID       *uuid.UUID `json:"escala_id,omitempty"`
	CheckInAt      time.Time  `json:"check_in_at"`
	CheckOutAt     *time.Time `json:"check_out_at,omitempty"`
	DuracaoMinutos *int       `json:"duracao_minutos,omitempty"`
	Observacao     *string    `json:"observacao,omitempty"`
	Origem         string     `json:"origem"`
	CriadoEm       time.Time  `json:"criado_em"`
}

// ConfigPonto guarda os parâmetros do ponto eletrônico por escopo
// (contrato, subgrupo, equipe opcional), incluindo a cerca geográfica.
type ConfigPonto struct {
	ID                uuid.UUID  `json:"id"`
	TenantID          uuid.UUID  `json:"tenant_id"`
	ContratoAtivoID   uuid.UUID  `json:"contrato_ativo_id"`
	SubgrupoID        uuid.UUID  `json:"subgrupo_id"`
	EquipeID          *uuid.UUID `json:"equipe_id,omitempty"`
	HorasMensais      int        `json:"horas_mensais"`
	ValorHora         float64    `json:"valor_hora"`
	HoraEntrada       string     `json:"hora_entrada"`
	HoraSaida         string     `json:"hora_saida"`
	ToleranciaMinutos int        `json:"tolerancia_minutos"`
	Latitude          *float64   `json:"latitude,omitempty"`
	Longitude         *float64   `json:"longitude,omitempty"`
	RaioMetros        *int       `json:"raio_metros,omitempty"`
	Endereco          *string    `json:"endereco,omitempty"`
}

// CheckInInput descreve a entrada do médico.
type CheckInInput struct {
	EscalaID   *uuid.UUID
	Observacao *string
	Latitude   *float64
	Longitude  *float64
}

// ResumoHoje reúne o registro aberto, os registros do dia e o total de
// minutos fechados (registro aberto contribui zero até fechar).
type ResumoHoje struct {
	Aberto       *RegistroPonto  `json:"aberto,omitempty"`
	Registros    []RegistroPonto `json:"registros"`
	TotalMinutos int             `json:"total_minutos"`
}

// RegistroFiltro filtra a listagem administrativa de registros.
type RegistroFiltro struct {
	MedicoID *uuid.UUID
	De       *time.Time
	Ate      *time.Time
	Page     int
	Limit    int
}
