package documento

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/escalamedica/plantao/internal/apperr"
	"github.com/escalamedica/plantao/internal/auditoria"
	"github.com/escalamedica/plantao/internal/storage"
	"github.com/escalamedica/plantao/internal/util"
)

// Limite de upload por documento.
const tamanhoMaximoBytes = 10 << 20

// Store é o contrato de persistência consumido pelo serviço.
type Store interface {
	Insert(ctx context.Context, d Documento) (*Documento, error)
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Documento, error)
	List(ctx context.Context, tenantID uuid.UUID, medicoID *uuid.UUID, page, limit int) ([]Documento, int, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// Service envia o arquivo para o storage e persiste só os metadados.
type Service struct {
	repo     Store
	uploader storage.Uploader
	audit    auditoria.Recorder
}

// NewService cria o serviço de documentos.
func NewService(repo Store, uploader storage.Uploader, audit auditoria.Recorder) *Service {
	return &Service{repo: repo, uploader: uploader, audit: audit}
}

// Upload valida o arquivo, envia ao backend e grava os metadados.
func (s *Service) Upload(ctx context.Context, tenantID, masterID uuid.UUID, input UploadInput) (*Documento, error) {
	if err := util.RequireString(input.Nome, "nome"); err != nil {
		return nil, apperr.Validation(err.Error())
	}
	if len(input.Conteudo) == 0 {
		return nil, apperr.Validation("arquivo vazio")
	}
	if len(input.Conteudo) > tamanhoMaximoBytes {
		return nil, apperr.Validation("arquivo excede o tamanho máximo")
	}

	mimeType := strings.TrimSpace(input.MimeType)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	key := fmt.Sprintf("documentos/%s/%s%s", tenantID, uuid.NewString(), path.Ext(input.Nome))
	enviado, err := s.uploader.Upload(ctx, storage.UploadInput{
		Key:         key,
		Body:        input.Conteudo,
		ContentType: mimeType,
	})
	if err != nil {
		return nil, apperr.Internal("falha ao enviar arquivo")
	}

	doc, err := s.repo.Insert(ctx, Documento{
		TenantID:     tenantID,
		MedicoID:     input.MedicoID,
		Nome:         strings.TrimSpace(input.Nome),
		Caminho:      enviado.URL,
		MimeType:     mimeType,
		TamanhoBytes: int64(len(input.Conteudo)),
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "ENVIAR_DOCUMENTO",
		MasterID: &masterID,
		Detalhes: map[string]any{"documento_id": doc.ID.String()},
	})

	return doc, nil
}

// Get busca os metadados do documento.
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*Documento, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

// List lista documentos do tenant.
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, medicoID *uuid.UUID, page, limit int) ([]Documento, int, error) {
	return s.repo.List(ctx, tenantID, medicoID, page, limit)
}

// ListDoMedico lista documentos endereçados ao médico ou compartilhados.
func (s *Service) ListDoMedico(ctx context.Context, tenantID, medicoID uuid.UUID, page, limit int) ([]Documento, int, error) {
	return s.repo.List(ctx, tenantID, &medicoID, page, limit)
}

// Delete remove os metadados do documento.
func (s *Service) Delete(ctx context.Context, tenantID, masterID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	s.audit.Record(ctx, auditoria.Entrada{
		TenantID: tenantID,
		Acao:     "REMOVER_DOCUMENTO",
		MasterID: &masterID,
		Detalhes: map[string]any{"documento_id": id.String()},
	})

	return nil
}
