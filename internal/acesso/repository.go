package acesso

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provê acesso aos overrides da matriz por tenant.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria o repositório da matriz de acesso.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListOverrides devolve os overrides gravados para (tenant, perfil).
func (r *Repository) ListOverrides(ctx context.Context, tenantID uuid.UUID, perfil string) (map[string]bool, error) {
	const query = `
        SELECT modulo, permitido
        FROM acessos_modulo_perfil
        WHERE tenant_id = $1 AND perfil = $2
    `

	rows, err := r.pool.Query(ctx, query, tenantID, perfil)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	overrides := make(map[string]bool)
	for rows.Next() {
		var (
			modulo    string
			permitido bool
		)
		if err := rows.Scan(&modulo, &permitido); err != nil {
			return nil, err
		}
		overrides[modulo] = permitido
	}

	return overrides, rows.Err()
}

// UpsertItem grava a célula pela chave natural (tenant, perfil, módulo).
func (r *Repository) UpsertItem(ctx context.Context, tenantID uuid.UUID, item Item) error {
	const query = `
        INSERT INTO acessos_modulo_perfil (tenant_id, perfil, modulo, permitido)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (tenant_id, perfil, modulo)
        DO UPDATE SET permitido = EXCLUDED.permitido
    `

	_, err := r.pool.Exec(ctx, query, tenantID, item.Perfil, item.Modulo, item.Permitido)
	return err
}
