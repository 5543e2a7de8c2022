package escala

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/escalamedica/plantao/internal/apperr"
	"github.com/escalamedica/plantao/internal/auditoria"
	"github.com/escalamedica/plantao/internal/contrato"
	"github.com/escalamedica/plantao/internal/medico"
)

type stubStore struct {
	escala     *Escala
	valorPadrao *float64

	plantoes map[string]*Plantao
}

func celulaKey(data time.Time, gradeID string) string {
	return data.Format("2006-01-02") + "/" + gradeID
}

func (s *stubStore) CreateEscala(ctx context.Context, tenantID uuid.UUID, input EscalaInput) (*Escala, error) {
	return &Escala{
		ID:              uuid.New(),
		TenantID:        tenantID,
		ContratoAtivoID: input.ContratoAtivoID,
		Nome:            input.Nome,
		DataInicio:      input.DataInicio,
		DataFim:         input.DataFim,
		Ativo:           true,
	}, nil
}

func (s *stubStore) GetEscala(ctx context.Context, tenantID, id uuid.UUID) (*Escala, error) {
	if s.escala == nil {
		return nil, apperr.NotFound("escala não encontrada")
	}
	return s.escala, nil
}

func (s *stubStore) ListEscalas(ctx context.Context, tenantID uuid.UUID, contratoID *uuid.UUID) ([]Escala, error) {
	return nil, nil
}

func (s *stubStore) SetEscalaAtivo(ctx context.Context, tenantID, id uuid.UUID, ativo bool) error {
	return nil
}

func (s *stubStore) UpsertEscalaSubgrupo(ctx context.Context, tenantID, escalaID, subgrupoID uuid.UUID) (bool, error) {
	return true, nil
}

func (s *stubStore) UpsertEscalaEquipe(ctx context.Context, tenantID, escalaID, equipeID uuid.UUID) (bool, error) {
	return true, nil
}

func (s *stubStore) UpsertAlocacao(ctx context.Context, tenantID, escalaID, medicoID uuid.UUID, cargo *string, valorHora *float64) (*Alocacao, error) {
	return &Alocacao{ID: uuid.New(), EscalaID: escalaID, MedicoID: medicoID, Ativo: true, Cargo: cargo, ValorHora: valorHora}, nil
}

func (s *stubStore) DesativarAlocacao(ctx context.Context, tenantID, escalaID, medicoID uuid.UUID) error {
	return nil
}

func (s *stubStore) ListAlocacoes(ctx context.Context, tenantID, escalaID uuid.UUID) ([]Alocacao, error) {
	return nil, nil
}

func (s *stubStore) HasAlocacaoAtiva(ctx context.Context, tenantID, escalaID, medicoID uuid.UUID) (bool, error) {
	return false, nil
}

func (s *stubStore) ListEscalasDoMedico(ctx context.Context, tenantID, medicoID uuid.UUID) ([]Escala, error) {
	return nil, nil
}

func (s *stubStore) UpsertPlantao(ctx context.Context, tenantID, escalaID uuid.UUID, data time.Time, gradeID string, medicoID uuid.UUID, valorHora float64) (*Plantao, error) {
	if s.plantoes == nil {
		s.plantoes = map[string]*Plantao{}
	}
	key := celulaKey(data, gradeID)
	existente, ok := s.plantoes[key]
	if ok {
		existente.MedicoID = medicoID
		existente.ValorHora = valorHora
		return existente, nil
	}
	p := &Plantao{ID: uuid.New(), EscalaID: escalaID, Data: data, GradeID: gradeID, MedicoID: medicoID, ValorHora: valorHora}
	s.plantoes[key] = p
	return p, nil
}

func (s *stubStore) DeletePlantao(ctx context.Context, tenantID, escalaID, plantaoID uuid.UUID) error {
	return nil
}

func (s *stubStore) ListPlantoes(ctx context.Context, tenantID, escalaID uuid.UUID, de, ate time.Time) ([]Plantao, error) {
	return nil, nil
}

func (s *stubStore) UpsertValorPlantao(ctx context.Context, tenantID, contratoID, subgrupoID uuid.UUID, gradeID string, valorHora float64) (*ValorPlantao, error) {
	return &ValorPlantao{ID: uuid.New(), ContratoAtivoID: contratoID, SubgrupoID: subgrupoID, GradeID: gradeID, ValorHora: valorHora}, nil
}

func (s *stubStore) ListValoresPlantao(ctx context.Context, tenantID, contratoID uuid.UUID) ([]ValorPlantao, error) {
	return nil, nil
}

func (s *stubStore) ResolveValorHora(ctx context.Context, tenantID, escalaID, medicoID uuid.UUID, gradeID string) (*float64, error) {
	return s.valorPadrao, nil
}

type stubContratos struct {
	contrato *contrato.ContratoAtivo
}

func (s *stubContratos) GetContrato(ctx context.Context, tenantID, id uuid.UUID) (*contrato.ContratoAtivo, error) {
	if s.contrato == nil {
		return nil, apperr.NotFound("contrato não encontrado")
	}
	return s.contrato, nil
}

type stubMedicos struct {
	medicos map[uuid.UUID]*medico.Medico

	// desativarApos > 0 desativa o médico depois desse número de consultas,
	// simulando desativação no meio de uma replicação semanal.
	desativarApos int
	consultas     int
}

func (s *stubMedicos) Get(ctx context.Context, tenantID, id uuid.UUID) (*medico.Medico, error) {
	m, ok := s.medicos[id]
	if !ok {
		return nil, apperr.NotFound("médico não encontrado")
	}
	s.consultas++
	if s.desativarApos > 0 && s.consultas > s.desativarApos {
		inativo := *m
		inativo.Ativo = false
		return &inativo, nil
	}
	return m, nil
}

type noopRecorder struct{}

func (noopRecorder) Record(ctx context.Context, entrada auditoria.Entrada) {}

func medicoAtivo() *medico.Medico {
	return &medico.Medico{ID: uuid.New(), Nome: "Dra. Ana", CRM: "12345-PB", Ativo: true}
}

func TestCreateEscalaExigeContratoComEscala(t *testing.T) {
	contratos := &stubContratos{contrato: &contrato.ContratoAtivo{ID: uuid.New(), Ativo: true, UsaEscala: false, UsaPonto: true}}
	svc := NewService(&stubStore{}, contratos, &stubMedicos{}, noopRecorder{})

	_, err := svc.CreateEscala(context.Background(), uuid.New(), uuid.New(), EscalaInput{
		ContratoAtivoID: contratos.contrato.ID,
		Nome:            "UPA Central",
		DataInicio:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		DataFim:         time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	require.Equal(t, "contrato não usa escala", apperr.From(err).Message)
}

func TestCreateEscalaPeriodoInvertido(t *testing.T) {
	svc := NewService(&stubStore{}, &stubContratos{}, &stubMedicos{}, noopRecorder{})

	_, err := svc.CreateEscala(context.Background(), uuid.New(), uuid.New(), EscalaInput{
		Nome:       "UPA Central",
		DataInicio: time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		DataFim:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	require.Equal(t, "data final anterior à inicial", apperr.From(err).Message)
}

func TestAtribuirPlantaoGradeDesconhecida(t *testing.T) {
	svc := NewService(&stubStore{}, &stubContratos{}, &stubMedicos{}, noopRecorder{})

	_, err := svc.AtribuirPlantao(context.Background(), uuid.New(), uuid.New(), uuid.New(), AtribuirPlantaoInput{
		GradeID:  "madrugada",
		MedicoID: uuid.New(),
	})
	require.Error(t, err)
	require.Equal(t, "grade desconhecida", apperr.From(err).Message)
}

func TestAtribuirPlantaoUsaValorPadrao(t *testing.T) {
	m := medicoAtivo()
	padrao := 150.0
	store := &stubStore{
		escala:      &Escala{ID: uuid.New(), Ativo: true},
		valorPadrao: &padrao,
	}
	svc := NewService(store, &stubContratos{}, &stubMedicos{medicos: map[uuid.UUID]*medico.Medico{m.ID: m}}, noopRecorder{})

	p, err := svc.AtribuirPlantao(context.Background(), uuid.New(), uuid.New(), store.escala.ID, AtribuirPlantaoInput{
		Data:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		GradeID:  GradeManhaTarde,
		MedicoID: m.ID,
	})
	require.NoError(t, err)
	require.Equal(t, 150.0, p.ValorHora)
}

func TestAtribuirPlantaoSemValorConfigurado(t *testing.T) {
	m := medicoAtivo()
	store := &stubStore{escala: &Escala{ID: uuid.New(), Ativo: true}}
	svc := NewService(store, &stubContratos{}, &stubMedicos{medicos: map[uuid.UUID]*medico.Medico{m.ID: m}}, noopRecorder{})

	p, err := svc.AtribuirPlantao(context.Background(), uuid.New(), uuid.New(), store.escala.ID, AtribuirPlantaoInput{
		Data:     time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		GradeID:  GradeNoite,
		MedicoID: m.ID,
	})
	require.NoError(t, err)
	require.Equal(t, 0.0, p.ValorHora)
}

func TestAtribuirPlantaoSubstituiCelula(t *testing.T) {
	antigo := medicoAtivo()
	novo := medicoAtivo()
	store := &stubStore{escala: &Escala{ID: uuid.New(), Ativo: true}}
	medicos := &stubMedicos{medicos: map[uuid.UUID]*medico.Medico{antigo.ID: antigo, novo.ID: novo}}
	svc := NewService(store, &stubContratos{}, medicos, noopRecorder{})

	data := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	valorAntigo := 100.0
	primeiro, err := svc.AtribuirPlantao(context.Background(), uuid.New(), uuid.New(), store.escala.ID, AtribuirPlantaoInput{
		Data: data, GradeID: GradeManhaTarde, MedicoID: antigo.ID, ValorHora: &valorAntigo,
	})
	require.NoError(t, err)

	valorNovo := 180.0
	segundo, err := svc.AtribuirPlantao(context.Background(), uuid.New(), uuid.New(), store.escala.ID, AtribuirPlantaoInput{
		Data: data, GradeID: GradeManhaTarde, MedicoID: novo.ID, ValorHora: &valorNovo,
	})
	require.NoError(t, err)

	require.Equal(t, primeiro.ID, segundo.ID)
	require.Equal(t, novo.ID, segundo.MedicoID)
	require.Equal(t, 180.0, segundo.ValorHora)
	require.Len(t, store.plantoes, 1)
}

func TestAtribuirPlantaoMedicoDesativado(t *testing.T) {
	m := medicoAtivo()
	m.Ativo = false
	store := &stubStore{escala: &Escala{ID: uuid.New(), Ativo: true}}
	svc := NewService(store, &stubContratos{}, &stubMedicos{medicos: map[uuid.UUID]*medico.Medico{m.ID: m}}, noopRecorder{})

	_, err := svc.AtribuirPlantao(context.Background(), uuid.New(), uuid.New(), store.escala.ID, AtribuirPlantaoInput{
		Data: time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), GradeID: GradeManhaTarde, MedicoID: m.ID,
	})
	require.Error(t, err)
	require.Equal(t, "médico desativado", apperr.From(err).Message)
}

func TestReplicarSemanaExigeSeteDatas(t *testing.T) {
	svc := NewService(&stubStore{}, &stubContratos{}, &stubMedicos{}, noopRecorder{})

	_, err := svc.ReplicarSemana(context.Background(), uuid.New(), uuid.New(), uuid.New(), ReplicarSemanaInput{
		GradeID:  GradeManhaTarde,
		MedicoID: uuid.New(),
		Datas:    []time.Time{time.Now()},
	})
	require.Error(t, err)
	require.Equal(t, "replicação exige exatamente 7 datas", apperr.From(err).Message)
}

func TestReplicarSemanaFalhaParcialNaoDesfazDiasGravados(t *testing.T) {
	m := medicoAtivo()
	store := &stubStore{escala: &Escala{ID: uuid.New(), Ativo: true}}
	medicos := &stubMedicos{medicos: map[uuid.UUID]*medico.Medico{m.ID: m}}
	svc := NewService(store, &stubContratos{}, medicos, noopRecorder{})

	inicio := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	datas := make([]time.Time, 7)
	for i := range datas {
		datas[i] = inicio.AddDate(0, 0, i)
	}

	// Médico é desativado depois do terceiro dia: os três primeiros ficam
	// gravados, os quatro restantes falham individualmente.
	medicos.desativarApos = 3
	dias, err := svc.ReplicarSemana(context.Background(), uuid.New(), uuid.New(), store.escala.ID, ReplicarSemanaInput{
		GradeID:  GradeNoite,
		MedicoID: m.ID,
		Datas:    datas,
	})
	require.NoError(t, err)
	require.Len(t, dias, 7)

	for i, dia := range dias {
		if i < 3 {
			require.True(t, dia.Sucesso)
			require.Empty(t, dia.Erro)
			continue
		}
		require.False(t, dia.Sucesso)
		require.Equal(t, "médico desativado", dia.Erro)
	}
	require.Len(t, store.plantoes, 3)
}

func TestDefinirValorPlantaoNegativo(t *testing.T) {
	svc := NewService(&stubStore{}, &stubContratos{}, &stubMedicos{}, noopRecorder{})

	_, err := svc.DefinirValorPlantao(context.Background(), uuid.New(), uuid.New(), uuid.New(), uuid.New(), GradeManhaTarde, -10)
	require.Error(t, err)
	require.Equal(t, "valor-hora negativo", apperr.From(err).Message)
}

func TestListPlantoesIntervaloInvalido(t *testing.T) {
	svc := NewService(&stubStore{}, &stubContratos{}, &stubMedicos{}, noopRecorder{})

	de := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	_, err := svc.ListPlantoes(context.Background(), uuid.New(), uuid.New(), de, de.AddDate(0, 0, -1))
	require.Error(t, err)
	require.Equal(t, "intervalo inválido", apperr.From(err).Message)
}
