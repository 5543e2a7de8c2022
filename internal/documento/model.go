package documento

import (
	"time"

	"github.com/google/uuid"
)

// Documento guarda apenas os metadados do arquivo; os bytes vivem no
// backend de storage e nunca passam pelo serviço depois do upload.
type Documento struct {
	ID           uuid.UUID  `json:"id"`
	TenantID     uuid.UUID  `json:"tenant_id"`
	MedicoID     *uuid.UUID `json:"medico_id,omitempty"`
	Nome         string     `json:"nome"`
	Caminho      string     `json:"caminho"`
	MimeType     string     `json:"mime_type"`
	TamanhoBytes int64      `json:"tamanho_bytes"`
	CriadoEm     time.Time  `json:"criado_em"`
}

// UploadInput descreve o envio de um documento.
type UploadInput struct {
	MedicoID *uuid.UUID
	Nome     string
	MimeType string
	Conteudo []byte
}
