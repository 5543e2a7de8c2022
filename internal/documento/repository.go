package documento

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escalamedica/plantao/internal/apperr"
)

// Repository provê acesso aos metadados de documentos.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria o repositório de documentos.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const documentoColumns = `id, tenant_id, medico_id, nome, caminho, mime_type, tamanho_bytes, criado_em`

// Insert grava os metadados de um documento enviado.
func (r *Repository) Insert(ctx context.Context, d Documento) (*Documento, error) {
	const query = `
        INSERT INTO documentos (tenant_id, medico_id, nome, caminho, mime_type, tamanho_bytes)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING ` + documentoColumns + `
    `

	row := r.pool.QueryRow(ctx, query, d.TenantID, d.MedicoID, d.Nome, d.Caminho, d.MimeType, d.TamanhoBytes)
	return scanDocumento(row)
}

// GetByID busca o documento do tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Documento, error) {
	const query = `
        SELECT ` + documentoColumns + `
        FROM documentos
        WHERE tenant_id = $1 AND id = $2
    `

	return scanDocumento(r.pool.QueryRow(ctx, query, tenantID, id))
}

// List devolve documentos paginados; medicoID filtra os endereçados a um
// médico, incluindo os sem destinatário (compartilhados com todos).
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, medicoID *uuid.UUID, page, limit int) ([]Documento, int, error) {
	const countQuery = `
        SELECT COUNT(*)
        FROM documentos
        WHERE tenant_id = $1
          AND ($2::uuid IS NULL OR medico_id = $2 OR medico_id IS NULL)
    `
	const query = `
        SELECT ` + documentoColumns + `
        FROM documentos
        WHERE tenant_id = $1
          AND ($2::uuid IS NULL OR medico_id = $2 OR medico_id IS NULL)
        ORDER BY criado_em DESC
        LIMIT $3 OFFSET $4
    `

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, tenantID, medicoID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, query, tenantID, medicoID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var documentos []Documento
	for rows.Next() {
		d, err := scanDocumento(rows)
		if err != nil {
			return nil, 0, err
		}
		documentos = append(documentos, *d)
	}

	return documentos, total, rows.Err()
}

// Delete remove os metadados; ausência é NotFound.
func (r *Repository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	const query = `
        DELETE FROM documentos
        WHERE tenant_id = $1 AND id = $2
    `

	tag, err := r.pool.Exec(ctx, query, tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("documento não encontrado")
	}
	return nil
}

func scanDocumento(row pgx.Row) (*Documento, error) {
	var d Documento
	if err := row.Scan(&d.ID, &d.TenantID, &d.MedicoID, &d.Nome, &d.Caminho, &d.MimeType, &d.TamanhoBytes, &d.CriadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("documento não encontrado")
		}
		return nil, err
	}
	return &d, nil
}
