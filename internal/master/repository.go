package master

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escalamedica/plantao/internal/apperr"
)

// Repository provê acesso aos administradores do tenant.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria o repositório de masters.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const masterColumns = `id, tenant_id, nome, email, senha_hash, ativo, criado_em`

// GetByEmail busca master pelo e-mail dentro do tenant.
func (r *Repository) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*Master, error) {
	const query = `
        SELECT ` + masterColumns + `
        FROM masters
        WHERE tenant_id = $1 AND email = $2
    `

	return scanMaster(r.pool.QueryRow(ctx, query, tenantID, strings.ToLower(email)))
}

// GetByID busca master pelo id dentro do tenant.
func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Master, error) {
	const query = `
        SELECT ` + masterColumns + `
        FROM masters
        WHERE tenant_id = $1 AND id = $2
    `

	return scanMaster(r.pool.QueryRow(ctx, query, tenantID, id))
}

// List devolve os masters do tenant.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID) ([]Master, error) {
	const query = `
        SELECT ` + masterColumns + `
        FROM masters
        WHERE tenant_id = $1
        ORDER BY nome ASC
    `

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var masters []Master
	for rows.Next() {
		m, err := scanMaster(rows)
		if err != nil {
			return nil, err
		}
		masters = append(masters, *m)
	}

	return masters, rows.Err()
}

// Create insere um master ativo.
func (r *Repository) Create(ctx context.Context, tenantID uuid.UUID, nome, email, senhaHash string) (*Master, error) {
	const query = `
        INSERT INTO masters (tenant_id, nome, email, senha_hash, ativo)
        VALUES ($1, $2, $3, $4, true)
        RETURNING ` + masterColumns + `
    `

	return scanMaster(r.pool.QueryRow(ctx, query, tenantID, nome, strings.ToLower(email), senhaHash))
}

// SetAtivo liga/desliga a conta do master.
func (r *Repository) SetAtivo(ctx context.Context, tenantID, id uuid.UUID, ativo bool) error {
	const query = `
        UPDATE masters
        SET ativo = $3
        WHERE tenant_id = $1 AND id = $2
    `

	tag, err := r.pool.Exec(ctx, query, tenantID, id, ativo)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("master não encontrado")
	}
	return nil
}

func scanMaster(row pgx.Row) (*Master, error) {
	var m Master
	if err := row.Scan(&m.ID, &m.TenantID, &m.Nome, &m.Email, &m.SenhaHash, &m.Ativo, &m.CriadoEm); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("master não encontrado")
		}
		return nil, err
	}
	return &m, nil
}
