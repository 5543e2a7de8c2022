package ponto

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/escalamedica/plantao/internal/apperr"
	"github.com/escalamedica/plantao/internal/auditoria"
	"github.com/escalamedica/plantao/internal/escala"
)

type stubStore struct {
	aberto  *RegistroPonto
	config  *ConfigPonto
	fechado *RegistroPonto

	duracaoFechada int
}

func (s *stubStore) GetAberto(ctx context.Context, tenantID, medicoID uuid.UUID) (*RegistroPonto, error) {
	return s.aberto, nil
}

func (s *stubStore) InsertAbertura(ctx context.Context, tenantID, medicoID uuid.UUID, escalaID *uuid.UUID, checkInAt time.Time, observacao *string, origem string) (*RegistroPonto, error) {
	return &RegistroPonto{
		ID:        uuid.New(),
		TenantID:  tenantID,
		MedicoID:  medicoID,
		EscalaID:  escalaID,
		CheckInAt: checkInAt,
		Origem:    origem,
	}, nil
}

func (s *stubStore) Fechar(ctx context.Context, tenantID, id uuid.UUID, checkOutAt time.Time, duracaoMinutos int, observacao *string) (*RegistroPonto, error) {
	s.duracaoFechada = duracaoMinutos
	reg := *s.aberto
	reg.CheckOutAt = &checkOutAt
	reg.DuracaoMinutos = &duracaoMinutos
	s.fechado = &reg
	return &reg, nil
}

func (s *stubStore) ListDoMedico(ctx context.Context, tenantID, medicoID uuid.UUID, de, ate time.Time) ([]RegistroPonto, error) {
	return nil, nil
}

func (s *stubStore) ListRegistros(ctx context.Context, tenantID uuid.UUID, filtro RegistroFiltro) ([]RegistroPonto, int, error) {
	return nil, 0, nil
}

func (s *stubStore) UpsertConfig(ctx context.Context, cfg ConfigPonto) (*ConfigPonto, error) {
	cfg.ID = uuid.New()
	return &cfg, nil
}

func (s *stubStore) ListConfigs(ctx context.Context, tenantID uuid.UUID, contratoID *uuid.UUID) ([]ConfigPonto, error) {
	return nil, nil
}

func (s *stubStore) ResolveConfig(ctx context.Context, tenantID, escalaID, medicoID uuid.UUID) (*ConfigPonto, error) {
	return s.config, nil
}

type stubEscalas struct {
	escala  *escala.Escala
	alocado bool
}

func (s *stubEscalas) GetEscala(ctx context.Context, tenantID, id uuid.UUID) (*escala.Escala, error) {
	if s.escala == nil {
		return nil, apperr.NotFound("escala não encontrada")
	}
	return s.escala, nil
}

func (s *stubEscalas) HasAlocacaoAtiva(ctx context.Context, tenantID, escalaID, medicoID uuid.UUID) (bool, error) {
	return s.alocado, nil
}

type noopRecorder struct{}

func (noopRecorder) Record(ctx context.Context, entrada auditoria.Entrada) {}

func newTestService(store *stubStore, escalas *stubEscalas, agora time.Time) *Service {
	svc := NewService(store, escalas, noopRecorder{})
	svc.agora = func() time.Time { return agora }
	return svc
}

func TestCheckInAbreRegistro(t *testing.T) {
	tenantID := uuid.New()
	medicoID := uuid.New()
	agora := time.Date(2026, 3, 10, 7, 2, 0, 0, time.UTC)

	svc := newTestService(&stubStore{}, &stubEscalas{}, agora)

	reg, err := svc.CheckIn(context.Background(), tenantID, medicoID, CheckInInput{})
	require.NoError(t, err)
	require.Equal(t, medicoID, reg.MedicoID)
	require.Equal(t, agora, reg.CheckInAt)
	require.Equal(t, OrigemAppMedico, reg.Origem)
	require.Nil(t, reg.CheckOutAt)
}

func TestCheckInComRegistroAberto(t *testing.T) {
	store := &stubStore{aberto: &RegistroPonto{ID: uuid.New(), CheckInAt: time.Now()}}
	svc := newTestService(store, &stubEscalas{}, time.Now())

	_, err := svc.CheckIn(context.Background(), uuid.New(), uuid.New(), CheckInInput{})
	require.Error(t, err)
	require.True(t, apperr.IsConflict(err))
}

func TestCheckInSemVinculoComEscala(t *testing.T) {
	escalaID := uuid.New()
	escalas := &stubEscalas{
		escala:  &escala.Escala{ID: escalaID, Ativo: true},
		alocado: false,
	}
	svc := newTestService(&stubStore{}, escalas, time.Now())

	_, err := svc.CheckIn(context.Background(), uuid.New(), uuid.New(), CheckInInput{EscalaID: &escalaID})
	require.Error(t, err)
	require.True(t, apperr.IsForbidden(err))
}

func TestCheckInEscalaInativa(t *testing.T) {
	escalaID := uuid.New()
	escalas := &stubEscalas{
		escala:  &escala.Escala{ID: escalaID, Ativo: false},
		alocado: true,
	}
	svc := newTestService(&stubStore{}, escalas, time.Now())

	_, err := svc.CheckIn(context.Background(), uuid.New(), uuid.New(), CheckInInput{EscalaID: &escalaID})
	require.Error(t, err)
	require.True(t, apperr.IsNotFound(err))
}

func TestCheckInGeofence(t *testing.T) {
	escalaID := uuid.New()
	lat := -7.117
	lon := -34.882
	raio := 200

	store := &stubStore{config: &ConfigPonto{Latitude: &lat, Longitude: &lon, RaioMetros: &raio}}
	escalas := &stubEscalas{escala: &escala.Escala{ID: escalaID, Ativo: true}, alocado: true}
	svc := newTestService(store, escalas, time.Now())

	t.Run("sem coordenadas", func(t *testing.T) {
		_, err := svc.CheckIn(context.Background(), uuid.New(), uuid.New(), CheckInInput{EscalaID: &escalaID})
		require.Error(t, err)
		require.Equal(t, "coordenadas obrigatórias para check-in", apperr.From(err).Message)
	})

	t.Run("fora do raio", func(t *testing.T) {
		longe := lat + 0.1
		_, err := svc.CheckIn(context.Background(), uuid.New(), uuid.New(), CheckInInput{
			EscalaID: &escalaID,
			Latitude: &longe,
			Longitude: &lon,
		})
		require.Error(t, err)
		require.Equal(t, "fora do perímetro permitido", apperr.From(err).Message)
	})

	t.Run("dentro do raio", func(t *testing.T) {
		reg, err := svc.CheckIn(context.Background(), uuid.New(), uuid.New(), CheckInInput{
			EscalaID:  &escalaID,
			Latitude:  &lat,
			Longitude: &lon,
		})
		require.NoError(t, err)
		require.NotNil(t, reg)
	})
}

func TestCheckOutCalculaDuracao(t *testing.T) {
	checkIn := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	store := &stubStore{aberto: &RegistroPonto{ID: uuid.New(), CheckInAt: checkIn}}
	svc := newTestService(store, &stubEscalas{}, checkIn.Add(45*time.Minute))

	reg, err := svc.CheckOut(context.Background(), uuid.New(), uuid.New(), nil)
	require.NoError(t, err)
	require.Equal(t, 45, store.duracaoFechada)
	require.NotNil(t, reg.CheckOutAt)
}

func TestCheckOutDuracaoMinimaDeUmMinuto(t *testing.T) {
	checkIn := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	store := &stubStore{aberto: &RegistroPonto{ID: uuid.New(), CheckInAt: checkIn}}
	svc := newTestService(store, &stubEscalas{}, checkIn.Add(20*time.Second))

	_, err := svc.CheckOut(context.Background(), uuid.New(), uuid.New(), nil)
	require.NoError(t, err)
	require.Equal(t, 1, store.duracaoFechada)
}

func TestCheckOutSemRegistroAberto(t *testing.T) {
	svc := newTestService(&stubStore{}, &stubEscalas{}, time.Now())

	_, err := svc.CheckOut(context.Background(), uuid.New(), uuid.New(), nil)
	require.Error(t, err)
	require.True(t, apperr.IsNotFound(err))
}

func TestCheckOutAntesDoCheckIn(t *testing.T) {
	checkIn := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	store := &stubStore{aberto: &RegistroPonto{ID: uuid.New(), CheckInAt: checkIn}}
	svc := newTestService(store, &stubEscalas{}, checkIn)

	_, err := svc.CheckOut(context.Background(), uuid.New(), uuid.New(), nil)
	require.Error(t, err)
	require.Equal(t, "horário de saída inválido", apperr.From(err).Message)
}

func TestSalvarConfigGeofenceIncompleta(t *testing.T) {
	svc := newTestService(&stubStore{}, &stubEscalas{}, time.Now())
	lat := -7.117

	_, err := svc.SalvarConfig(context.Background(), uuid.New(), uuid.New(), ConfigPonto{Latitude: &lat})
	require.Error(t, err)
	require.Equal(t, "cerca geográfica incompleta", apperr.From(err).Message)
}

func TestSalvarConfigCoordenadasInvalidas(t *testing.T) {
	svc := newTestService(&stubStore{}, &stubEscalas{}, time.Now())
	lat := 91.0
	lon := 0.0
	raio := 100

	_, err := svc.SalvarConfig(context.Background(), uuid.New(), uuid.New(), ConfigPonto{
		Latitude:   &lat,
		Longitude:  &lon,
		RaioMetros: &raio,
	})
	require.Error(t, err)
	require.Equal(t, "coordenadas inválidas", apperr.From(err).Message)
}
