package medico

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/escalamedica/plantao/internal/apperr"
	"github.com/escalamedica/plantao/internal/auditoria"
	"github.com/escalamedica/plantao/internal/auth"
)

type stubStore struct {
	porCPF   map[string]*Medico
	porCRM   map[string]*Medico
	porEmail map[string]*Medico
	convite  *Convite
	medico   *Medico

	senhaDefinida string
}

func (s *stubStore) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Medico, error) {
	if s.medico == nil || s.medico.ID != id {
		return nil, apperr.NotFound("médico não encontrado")
	}
	return s.medico, nil
}

func (s *stubStore) GetByCPF(ctx context.Context, tenantID uuid.UUID, cpf string) (*Medico, error) {
	if m, ok := s.porCPF[cpf]; ok {
		return m, nil
	}
	return nil, apperr.NotFound("médico não encontrado")
}

func (s *stubStore) GetByCRM(ctx context.Context, tenantID uuid.UUID, crm string) (*Medico, error) {
	if m, ok := s.porCRM[crm]; ok {
		return m, nil
	}
	return nil, apperr.NotFound("médico não encontrado")
}

func (s *stubStore) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*Medico, error) {
	if m, ok := s.porEmail[email]; ok {
		return m, nil
	}
	return nil, apperr.NotFound("médico não encontrado")
}

func (s *stubStore) List(ctx context.Context, tenantID uuid.UUID, search string, limit, offset int) ([]Medico, int, error) {
	return nil, 0, nil
}

func (s *stubStore) Create(ctx context.Context, tenantID uuid.UUID, input CreateInput) (*Medico, error) {
	return &Medico{
		ID:       uuid.New(),
		TenantID: tenantID,
		Nome:     input.Nome,
		CPF:      input.CPF,
		CRM:      input.CRM,
		Email:    input.Email,
		Ativo:    true,
	}, nil
}

func (s *stubStore) Update(ctx context.Context, tenantID, id uuid.UUID, input UpdateInput) (*Medico, error) {
	return s.medico, nil
}

func (s *stubStore) SetAtivo(ctx context.Context, tenantID, id uuid.UUID, ativo bool) error {
	return nil
}

func (s *stubStore) SetConvite(ctx context.Context, tenantID, id uuid.UUID, tokenHash string, expiraEm time.Time) error {
	s.convite = &Convite{TokenHash: tokenHash, ExpiraEm: expiraEm}
	return nil
}

func (s *stubStore) GetByConviteHash(ctx context.Context, tenantID uuid.UUID, tokenHash string) (*Medico, *Convite, error) {
	if s.convite == nil || s.convite.TokenHash != tokenHash {
		return nil, nil, apperr.NotFound("convite não encontrado")
	}
	return s.medico, s.convite, nil
}

func (s *stubStore) ConsumirConvite(ctx context.Context, tenantID, id uuid.UUID, senhaHash string) error {
	s.senhaDefinida = senhaHash
	s.convite = nil
	return nil
}

type noopRecorder struct{}

func (noopRecorder) Record(ctx context.Context, entrada auditoria.Entrada) {}

func newTestService(store *stubStore) *Service {
	return NewService(store, noopRecorder{}, 7*24*time.Hour)
}

func TestCreateNormalizaCPFECRM(t *testing.T) {
	svc := newTestService(&stubStore{})

	m, err := svc.Create(context.Background(), uuid.New(), uuid.New(), CreateInput{
		Nome: "Dra. Ana Souza",
		CPF:  "123.456.789-01",
		CRM:  " 12345-pb ",
	})
	require.NoError(t, err)
	require.Equal(t, "12345678901", m.CPF)
	require.Equal(t, "12345-PB", m.CRM)
}

func TestCreateCPFInvalido(t *testing.T) {
	svc := newTestService(&stubStore{})

	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), CreateInput{
		Nome: "Dra. Ana Souza",
		CPF:  "123",
		CRM:  "12345-PB",
	})
	require.Error(t, err)
	require.Equal(t, "CPF deve ter 11 dígitos", apperr.From(err).Message)
}

func TestCreateCRMInvalido(t *testing.T) {
	svc := newTestService(&stubStore{})

	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), CreateInput{
		Nome: "Dra. Ana Souza",
		CPF:  "12345678901",
		CRM:  "ABC",
	})
	require.Error(t, err)
	require.Equal(t, "CRM inválido (formato esperado: 12345-UF)", apperr.From(err).Message)
}

func TestCreateCPFDuplicado(t *testing.T) {
	store := &stubStore{porCPF: map[string]*Medico{
		"12345678901": {ID: uuid.New()},
	}}
	svc := newTestService(store)

	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), CreateInput{
		Nome: "Dra. Ana Souza",
		CPF:  "123.456.789-01",
		CRM:  "12345-PB",
	})
	require.Error(t, err)
	require.True(t, apperr.IsConflict(err))
	require.Equal(t, "CPF já cadastrado", apperr.From(err).Message)
}

func TestGerarEAceitarConvite(t *testing.T) {
	medicoID := uuid.New()
	store := &stubStore{medico: &Medico{ID: medicoID, Ativo: true}}
	svc := newTestService(store)

	token, expiraEm, err := svc.GerarConvite(context.Background(), uuid.New(), uuid.New(), medicoID)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.True(t, expiraEm.After(time.Now()))

	m, err := svc.AceitarConvite(context.Background(), uuid.New(), token, "senha-segura")
	require.NoError(t, err)
	require.Equal(t, medicoID, m.ID)
	require.NotEmpty(t, store.senhaDefinida)
	require.Nil(t, store.convite)
}

func TestAceitarConviteExpirado(t *testing.T) {
	medicoID := uuid.New()
	store := &stubStore{medico: &Medico{ID: medicoID, Ativo: true}}
	svc := newTestService(store)

	token, _, err := svc.GerarConvite(context.Background(), uuid.New(), uuid.New(), medicoID)
	require.NoError(t, err)

	store.convite.ExpiraEm = time.Now().Add(-time.Minute)

	_, err = svc.AceitarConvite(context.Background(), uuid.New(), token, "senha-segura")
	require.Error(t, err)
	require.Equal(t, "convite expirado", apperr.From(err).Message)
}

func TestAceitarConviteSenhaCurta(t *testing.T) {
	svc := newTestService(&stubStore{})

	_, err := svc.AceitarConvite(context.Background(), uuid.New(), "token", "curta")
	require.Error(t, err)
	require.Equal(t, "senha deve ter pelo menos 8 caracteres", apperr.From(err).Message)
}

func TestAuthenticatePorCPF(t *testing.T) {
	hash, err := auth.Hash("senha-segura")
	require.NoError(t, err)

	m := &Medico{ID: uuid.New(), Ativo: true, SenhaHash: &hash}
	store := &stubStore{porCPF: map[string]*Medico{"12345678901": m}}
	svc := newTestService(store)

	autenticado, err := svc.Authenticate(context.Background(), uuid.New(), "123.456.789-01", "senha-segura")
	require.NoError(t, err)
	require.Equal(t, m.ID, autenticado.ID)

	_, err = svc.Authenticate(context.Background(), uuid.New(), "123.456.789-01", "senha-errada")
	require.Error(t, err)
	require.True(t, apperr.IsForbidden(err))
}

func TestAuthenticateContaDesativada(t *testing.T) {
	hash, err := auth.Hash("senha-segura")
	require.NoError(t, err)

	m := &Medico{ID: uuid.New(), Ativo: false, SenhaHash: &hash}
	store := &stubStore{porEmail: map[string]*Medico{"ana@clinica.com": m}}
	svc := newTestService(store)

	_, err = svc.Authenticate(context.Background(), uuid.New(), "ana@clinica.com", "senha-segura")
	require.Error(t, err)
	require.Equal(t, "conta desativada", apperr.From(err).Message)
}

func TestAuthenticateSemSenhaDefinida(t *testing.T) {
	m := &Medico{ID: uuid.New(), Ativo: true}
	store := &stubStore{porEmail: map[string]*Medico{"ana@clinica.com": m}}
	svc := newTestService(store)

	_, err := svc.Authenticate(context.Background(), uuid.New(), "ana@clinica.com", "qualquer")
	require.Error(t, err)
	require.True(t, apperr.IsForbidden(err))
}
