package contrato

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/escalamedica/plantao/internal/apperr"
	"github.com/escalamedica/plantao/internal/auditoria"
	"github.com/escalamedica/plantao/internal/medico"
)

type stubStore struct {
	contrato *ContratoAtivo
	subgrupo *Subgrupo
	equipe   *Equipe

	vinculoExiste bool
	upserts       int
}

func (s *stubStore) CreateContrato(ctx context.Context, tenantID uuid.UUID, input ContratoInput) (*ContratoAtivo, error) {
	return &ContratoAtivo{
		ID:         uuid.New(),
		TenantID:   tenantID,
		Nome:       input.Nome,
		DataInicio: input.DataInicio,
		DataFim:    input.DataFim,
		Ativo:      true,
		UsaEscala:  input.UsaEscala,
		UsaPonto:   input.UsaPonto,
	}, nil
}

func (s *stubStore) GetContrato(ctx context.Context, tenantID, id uuid.UUID) (*ContratoAtivo, error) {
	if s.contrato == nil {
		return nil, apperr.NotFound("contrato não encontrado")
	}
	return s.contrato, nil
}

func (s *stubStore) ListContratos(ctx context.Context, tenantID uuid.UUID) ([]ContratoAtivo, error) {
	return nil, nil
}

func (s *stubStore) UpdateContrato(ctx context.Context, tenantID, id uuid.UUID, input ContratoInput) (*ContratoAtivo, error) {
	return s.contrato, nil
}

func (s *stubStore) SetContratoAtivo(ctx context.Context, tenantID, id uuid.UUID, ativo bool) error {
	return nil
}

func (s *stubStore) CreateSubgrupo(ctx context.Context, tenantID uuid.UUID, input SubgrupoInput) (*Subgrupo, error) {
	return &Subgrupo{ID: uuid.New(), TenantID: tenantID, Nome: input.Nome, Descricao: input.Descricao, Ativo: true}, nil
}

func (s *stubStore) GetSubgrupo(ctx context.Context, tenantID, id uuid.UUID) (*Subgrupo, error) {
	if s.subgrupo == nil {
		return nil, apperr.NotFound("subgrupo não encontrado")
	}
	return s.subgrupo, nil
}

func (s *stubStore) ListSubgrupos(ctx context.Context, tenantID uuid.UUID) ([]Subgrupo, error) {
	return nil, nil
}

func (s *stubStore) DeleteSubgrupo(ctx context.Context, tenantID, id uuid.UUID) error {
	return nil
}

func (s *stubStore) CreateEquipe(ctx context.Context, tenantID uuid.UUID, input EquipeInput) (*Equipe, error) {
	return &Equipe{ID: uuid.New(), TenantID: tenantID, Nome: input.Nome, SubgrupoID: input.SubgrupoID, Ativo: true}, nil
}

func (s *stubStore) GetEquipe(ctx context.Context, tenantID, id uuid.UUID) (*Equipe, error) {
	if s.equipe == nil {
		return nil, apperr.NotFound("equipe não encontrada")
	}
	return s.equipe, nil
}

func (s *stubStore) ListEquipes(ctx context.Context, tenantID uuid.UUID, subgrupoID *uuid.UUID) ([]Equipe, error) {
	return nil, nil
}

func (s *stubStore) DeleteEquipe(ctx context.Context, tenantID, id uuid.UUID) error {
	return nil
}

func (s *stubStore) upsert() (bool, error) {
	s.upserts++
	if s.vinculoExiste {
		return false, nil
	}
	s.vinculoExiste = true
	return true, nil
}

func (s *stubStore) UpsertSubgrupoMedico(ctx context.Context, tenantID, subgrupoID, medicoID uuid.UUID) (bool, error) {
	return s.upsert()
}

func (s *stubStore) RemoveSubgrupoMedico(ctx context.Context, tenantID, subgrupoID, medicoID uuid.UUID) error {
	return nil
}

func (s *stubStore) UpsertEquipeMedico(ctx context.Context, tenantID, equipeID, medicoID uuid.UUID) (bool, error) {
	return s.upsert()
}

func (s *stubStore) RemoveEquipeMedico(ctx context.Context, tenantID, equipeID, medicoID uuid.UUID) error {
	return nil
}

func (s *stubStore) UpsertContratoSubgrupo(ctx context.Context, tenantID, contratoID, subgrupoID uuid.UUID) (bool, error) {
	return s.upsert()
}

func (s *stubStore) UpsertContratoEquipe(ctx context.Context, tenantID, contratoID, equipeID uuid.UUID) (bool, error) {
	return s.upsert()
}

type stubMedicos struct {
	medico *medico.Medico
}

func (s *stubMedicos) Get(ctx context.Context, tenantID, id uuid.UUID) (*medico.Medico, error) {
	if s.medico == nil {
		return nil, apperr.NotFound("médico não encontrado")
	}
	return s.medico, nil
}

type captureRecorder struct {
	entradas []auditoria.Entrada
}

func (c *captureRecorder) Record(ctx context.Context, entrada auditoria.Entrada) {
	c.entradas = append(c.entradas, entrada)
}

func TestCreateContratoSemUso(t *testing.T) {
	svc := NewService(&stubStore{}, &stubMedicos{}, &captureRecorder{})

	_, err := svc.CreateContrato(context.Background(), uuid.New(), uuid.New(), ContratoInput{
		Nome:       "Hospital Municipal",
		DataInicio: time.Now(),
	})
	require.Error(t, err)
	require.Equal(t, "contrato precisa usar escala ou ponto", apperr.From(err).Message)
}

func TestCreateContratoNomeObrigatorio(t *testing.T) {
	svc := NewService(&stubStore{}, &stubMedicos{}, &captureRecorder{})

	_, err := svc.CreateContrato(context.Background(), uuid.New(), uuid.New(), ContratoInput{
		Nome:      "   ",
		UsaEscala: true,
	})
	require.Error(t, err)
	require.Equal(t, "nome obrigatório", apperr.From(err).Message)
}

func TestCreateContratoPeriodoInvertido(t *testing.T) {
	svc := NewService(&stubStore{}, &stubMedicos{}, &captureRecorder{})

	inicio := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	fim := inicio.AddDate(0, 0, -1)
	_, err := svc.CreateContrato(context.Background(), uuid.New(), uuid.New(), ContratoInput{
		Nome:       "Hospital Municipal",
		DataInicio: inicio,
		DataFim:    &fim,
		UsaPonto:   true,
	})
	require.Error(t, err)
	require.Equal(t, "data final anterior à inicial", apperr.From(err).Message)
}

func TestAddMedicoSubgrupoIdempotente(t *testing.T) {
	store := &stubStore{subgrupo: &Subgrupo{ID: uuid.New(), Ativo: true}}
	medicos := &stubMedicos{medico: &medico.Medico{ID: uuid.New(), Ativo: true}}
	audit := &captureRecorder{}
	svc := NewService(store, medicos, audit)

	tenantID := uuid.New()
	masterID := uuid.New()

	require.NoError(t, svc.AddMedicoSubgrupo(context.Background(), tenantID, masterID, store.subgrupo.ID, medicos.medico.ID))
	require.NoError(t, svc.AddMedicoSubgrupo(context.Background(), tenantID, masterID, store.subgrupo.ID, medicos.medico.ID))

	require.Equal(t, 2, store.upserts)
	// segunda chamada não cria vínculo novo, logo não gera nova auditoria
	require.Len(t, audit.entradas, 1)
	require.Equal(t, "VINCULAR_MEDICO_SUBGRUPO", audit.entradas[0].Acao)
}

func TestAddMedicoSubgrupoMedicoInativo(t *testing.T) {
	store := &stubStore{subgrupo: &Subgrupo{ID: uuid.New(), Ativo: true}}
	medicos := &stubMedicos{medico: &medico.Medico{ID: uuid.New(), Ativo: false}}
	svc := NewService(store, medicos, &captureRecorder{})

	err := svc.AddMedicoSubgrupo(context.Background(), uuid.New(), uuid.New(), store.subgrupo.ID, medicos.medico.ID)
	require.Error(t, err)
	require.True(t, apperr.IsNotFound(err))
}

func TestAddSubgrupoContratoInativo(t *testing.T) {
	store := &stubStore{
		contrato: &ContratoAtivo{ID: uuid.New(), Ativo: false},
		subgrupo: &Subgrupo{ID: uuid.New(), Ativo: true},
	}
	svc := NewService(store, &stubMedicos{}, &captureRecorder{})

	err := svc.AddSubgrupoContrato(context.Background(), uuid.New(), uuid.New(), store.contrato.ID, store.subgrupo.ID)
	require.Error(t, err)
	require.True(t, apperr.IsNotFound(err))
	require.Zero(t, store.upserts)
}

func TestCreateEquipeComSubgrupoInexistente(t *testing.T) {
	svc := NewService(&stubStore{}, &stubMedicos{}, &captureRecorder{})

	subgrupoID := uuid.New()
	_, err := svc.CreateEquipe(context.Background(), uuid.New(), uuid.New(), EquipeInput{
		Nome:       "Equipe Norte",
		SubgrupoID: &subgrupoID,
	})
	require.Error(t, err)
	require.True(t, apperr.IsNotFound(err))
}
