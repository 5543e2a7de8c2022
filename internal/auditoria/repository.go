package auditoria

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persiste a trilha de auditoria.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria o repositório de auditoria.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert grava uma entrada. Nunca atualiza nem remove.
func (r *Repository) Insert(ctx context.Context, entrada Entrada) error {
	const query = `
        INSERT INTO auditoria (tenant_id, acao, medico_id, master_id, detalhes)
        VALUES ($1, $2, $3, $4, $5)
    `

	detalhes, err := marshalDetalhes(entrada.Detalhes)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, query, entrada.TenantID, entrada.Acao, entrada.MedicoID, entrada.MasterID, detalhes)
	return err
}

// List devolve entradas do tenant em ordem decrescente, paginadas.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, limit, offset int) ([]Registro, int, error) {
	const countQuery = `SELECT count(*) FROM auditoria WHERE tenant_id = $1`

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
        SELECT id, tenant_id, acao, medico_id, master_id, detalhes, criado_em
        FROM auditoria
        WHERE tenant_id = $1
        ORDER BY criado_em DESC
        LIMIT $2 OFFSET $3
    `

	rows, err := r.pool.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var registros []Registro
	for rows.Next() {
		var (
			reg         Registro
			detalhesRaw []byte
			criadoEm    time.Time
		)
		if err := rows.Scan(&reg.ID, &reg.TenantID, &reg.Acao, &reg.MedicoID, &reg.MasterID, &detalhesRaw, &criadoEm); err != nil {
			return nil, 0, err
		}
		reg.CriadoEm = criadoEm
		if len(detalhesRaw) > 0 {
			_ = json.Unmarshal(detalhesRaw, &reg.Detalhes)
		}
		registros = append(registros, reg)
	}

	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return registros, total, nil
}

func marshalDetalhes(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}
