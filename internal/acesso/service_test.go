package acesso

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/escalamedica/plantao/internal/apperr"
	"github.com/escalamedica/plantao/internal/auditoria"
)

type stubStore struct {
	overrides map[string]bool
	gravados  []Item
}

func (s *stubStore) ListOverrides(ctx context.Context, tenantID uuid.UUID, perfil string) (map[string]bool, error) {
	return s.overrides, nil
}

func (s *stubStore) UpsertItem(ctx context.Context, tenantID uuid.UUID, item Item) error {
	s.gravados = append(s.gravados, item)
	return nil
}

type noopRecorder struct{}

func (noopRecorder) Record(ctx context.Context, entrada auditoria.Entrada) {}

func TestGetEffectivePermissionsMapaCompleto(t *testing.T) {
	svc := NewService(&stubStore{}, nil, noopRecorder{})

	efetivo, err := svc.GetEffectivePermissions(context.Background(), uuid.New(), PerfilMedico)
	require.NoError(t, err)
	require.Len(t, efetivo, len(Modulos))

	require.True(t, efetivo[ModuloEscalas])
	require.True(t, efetivo[ModuloPonto])
	require.False(t, efetivo[ModuloContratos])
	require.False(t, efetivo[ModuloAuditoria])
}

func TestGetEffectivePermissionsAplicaOverrides(t *testing.T) {
	store := &stubStore{overrides: map[string]bool{
		ModuloPonto:     false,
		ModuloAuditoria: true,
	}}
	svc := NewService(store, nil, noopRecorder{})

	efetivo, err := svc.GetEffectivePermissions(context.Background(), uuid.New(), PerfilMedico)
	require.NoError(t, err)
	require.False(t, efetivo[ModuloPonto])
	require.True(t, efetivo[ModuloAuditoria])
}

func TestGetEffectivePermissionsMasterSempreAtivos(t *testing.T) {
	// override tentando desligar módulos obrigatórios do MASTER
	store := &stubStore{overrides: map[string]bool{
		ModuloDashboard:     false,
		ModuloConfiguracoes: false,
		ModuloPerfil:        false,
		ModuloMedicos:       false,
	}}
	svc := NewService(store, nil, noopRecorder{})

	efetivo, err := svc.GetEffectivePermissions(context.Background(), uuid.New(), PerfilMaster)
	require.NoError(t, err)
	require.True(t, efetivo[ModuloDashboard])
	require.True(t, efetivo[ModuloConfiguracoes])
	require.True(t, efetivo[ModuloPerfil])
	require.False(t, efetivo[ModuloMedicos])
}

func TestGetEffectivePermissionsPerfilDesconhecido(t *testing.T) {
	svc := NewService(&stubStore{}, nil, noopRecorder{})

	_, err := svc.GetEffectivePermissions(context.Background(), uuid.New(), "GESTOR")
	require.Error(t, err)
	require.Equal(t, "perfil desconhecido", apperr.From(err).Message)
}

func TestSaveMatrixCorrigeSempreAtivos(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, nil, noopRecorder{})

	err := svc.SaveMatrix(context.Background(), uuid.New(), uuid.New(), []Item{
		{Perfil: PerfilMaster, Modulo: ModuloDashboard, Permitido: false},
		{Perfil: PerfilMaster, Modulo: ModuloAuditoria, Permitido: false},
	})
	require.NoError(t, err)
	require.Len(t, store.gravados, 2)

	require.Equal(t, ModuloDashboard, store.gravados[0].Modulo)
	require.True(t, store.gravados[0].Permitido)
	require.False(t, store.gravados[1].Permitido)
}

func TestSaveMatrixRejeitaModuloDesconhecido(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, nil, noopRecorder{})

	err := svc.SaveMatrix(context.Background(), uuid.New(), uuid.New(), []Item{
		{Perfil: PerfilMedico, Modulo: "FINANCEIRO", Permitido: true},
	})
	require.Error(t, err)
	require.Equal(t, "módulo desconhecido", apperr.From(err).Message)
	require.Empty(t, store.gravados)
}

func TestHasAccessModuloDesconhecidoNega(t *testing.T) {
	svc := NewService(&stubStore{}, nil, noopRecorder{})

	ok, err := svc.HasAccess(context.Background(), uuid.New(), PerfilMedico, "FINANCEIRO")
	require.NoError(t, err)
	require.False(t, ok)
}
