package tenant

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escalamedica/plantao/internal/apperr"
)

// Repository provê acesso ao armazenamento de tenants.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria um novo repositório de tenants.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const tenantColumns = `id, slug, nome, ativo, criado_em, atualizado_em`

// GetBySlug busca tenant pelo slug normalizado.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Tenant, error) {
	const query = `
        SELECT ` + tenantColumns + `
        FROM tenants
        WHERE slug = $1
    `

	row := r.pool.QueryRow(ctx, query, slug)
	return scanTenant(row)
}

// GetByID busca tenant pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	const query = `
        SELECT ` + tenantColumns + `
        FROM tenants
        WHERE id = $1
    `

	row := r.pool.QueryRow(ctx, query, id)
	return scanTenant(row)
}

// List devolve todos os tenants ordenados por criação.
func (r *Repository) List(ctx context.Context) ([]Tenant, error) {
	const query = `
        SELECT ` + tenantColumns + `
        FROM tenants
        ORDER BY criado_em DESC
    `

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, *t)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return tenants, nil
}

// Create insere um novo tenant e devolve os dados persistidos.
func (r *Repository) Create(ctx context.Context, input CreateInput) (*Tenant, error) {
	const query = `
        INSERT INTO tenants (slug, nome, ativo)
        VALUES ($1, $2, true)
        RETURNING ` + tenantColumns + `
    `

	row := r.pool.QueryRow(ctx, query,
		strings.TrimSpace(strings.ToLower(input.Slug)),
		strings.TrimSpace(input.Nome),
	)

	return scanTenant(row)
}

// SetAtivo liga ou desliga o tenant.
func (r *Repository) SetAtivo(ctx context.Context, id uuid.UUID, ativo bool) error {
	const query = `
        UPDATE tenants
        SET ativo = $2,
            atualizado_em = now()
        WHERE id = $1
    `

	tag, err := r.pool.Exec(ctx, query, id, ativo)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("tenant não encontrado")
	}
	return nil
}

func scanTenant(row pgx.Row) (*Tenant, error) {
	var t Tenant
	if err := row.Scan(&t.ID, &t.Slug, &t.Nome, &t.Ativo, &t.CriadoEm, &t.AtualizadoEm); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("tenant não encontrado")
		}
		return nil, err
	}
	return &t, nil
}
