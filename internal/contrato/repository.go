package contrato

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escalamedica/plantao/internal/apperr"
	"github.com/escalamedica/plantao/internal/db"
)

// Repository provê acesso ao armazenamento de contratos, subgrupos e equipes.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria o repositório da diretoria de cadastros.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const contratoColumns = `id, tenant_id, nome, data_inicio, data_fim, ativo, usa_escala, usa_ponto, criado_em`

// CreateContrato insere um contrato ativo.
func (r *Repository) CreateContrato(ctx context.Context, tenantID uuid.UUID, input ContratoInput) (*ContratoAtivo, error) {
	const query = `
        INSERT INTO contratos_ativos (tenant_id, nome, data_inicio, data_fim, ativo, usa_escala, usa_ponto)
        VALUES ($1, $2, $3, $4, true, $5, $6)
        RETURNING ` + contratoColumns + `
    `

	row := r.pool.QueryRow(ctx, query, tenantID, strings.TrimSpace(input.Nome), input.DataInicio, input.DataFim, input.UsaEscala, input.UsaPonto)
	return scanContrato(row)
}

// GetContrato busca contrato do tenant.
func (r *Repository) GetContrato(ctx context.Context, tenantID, id uuid.UUID) (*ContratoAtivo, error) {
	const query = `
        SELECT ` + contratoColumns + `
        FROM contratos_ativos
        WHERE tenant_id = $1 AND id = $2
    `

	row := r.pool.QueryRow(ctx, query, tenantID, id)
	return scanContrato(row)
}

// ListContratos devolve contratos do tenant, mais recentes primeiro.
func (r *Repository) ListContratos(ctx context.Context, tenantID uuid.UUID) ([]ContratoAtivo, error) {
	const query = `
        SELECT ` + contratoColumns + `
        FROM contratos_ativos
        WHERE tenant_id = $1
        ORDER BY criado_em DESC
    `

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contratos []ContratoAtivo
	for rows.Next() {
		c, err := scanContrato(rows)
		if err != nil {
			return nil, err
		}
		contratos = append(contratos, *c)
	}

	return contratos, rows.Err()
}

// UpdateContrato altera os campos editáveis do contrato.
func (r *Repository) UpdateContrato(ctx context.Context, tenantID, id uuid.UUID, input ContratoInput) (*ContratoAtivo, error) {
	const query = `
        UPDATE contratos_ativos
        SET nome = $3,
            data_inicio = $4,
            data_fim = $5,
            usa_escala = $6,
            usa_ponto = $7
        WHERE tenant_id = $1 AND id = $2
        RETURNING ` + contratoColumns + `
    `

	row := r.pool.QueryRow(ctx, query, tenantID, id, strings.TrimSpace(input.Nome), input.DataInicio, input.DataFim, input.UsaEscala, input.UsaPonto)
	return scanContrato(row)
}

// SetContratoAtivo liga/desliga o contrato.
func (r *Repository) SetContratoAtivo(ctx context.Context, tenantID, id uuid.UUID, ativo bool) error {
	const query = `
        UPDATE contratos_ativos
        SET ativo = $3
        WHERE tenant_id = $1 AND id = $2
    `

	tag, err := r.pool.Exec(ctx, query, tenantID, id, ativo)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("contrato não encontrado")
	}
	return nil
}

const subgrupoColumns = `s.id, s.tenant_id, s.nome, s.descricao, s.ativo, s.criado_em`

// CreateSubgrupo insere um subgrupo ativo.
func (r *Repository) CreateSubgrupo(ctx context.Context, tenantID uuid.UUID, input SubgrupoInput) (*Subgrupo, error) {
	const query = `
        INSERT INTO subgrupos (tenant_id, nome, descricao, ativo)
        VALUES ($1, $2, $3, true)
        RETURNING id, tenant_id, nome, descricao, ativo, criado_em
    `

	row := r.pool.QueryRow(ctx, query, tenantID, strings.TrimSpace(input.Nome), input.Descricao)

	var s Subgrupo
	if err := row.Scan(&s.ID, &s.TenantID, &s.Nome, &s.Descricao, &s.Ativo, &s.CriadoEm); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSubgrupo busca subgrupo do tenant com contagem de membros.
func (r *Repository) GetSubgrupo(ctx context.Context, tenantID, id uuid.UUID) (*Subgrupo, error) {
	const query = `
        SELECT ` + subgrupoColumns + `,
               (SELECT count(*) FROM subgrupo_medicos sm WHERE sm.subgrupo_id = s.id) AS total_medicos
        FROM subgrupos s
        WHERE s.tenant_id = $1 AND s.id = $2
    `

	row := r.pool.QueryRow(ctx, query, tenantID, id)

	var s Subgrupo
	if err := row.Scan(&s.ID, &s.TenantID, &s.Nome, &s.Descricao, &s.Ativo, &s.CriadoEm, &s.TotalMedicos); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("subgrupo não encontrado")
		}
		return nil, err
	}
	return &s, nil
}

// ListSubgrupos devolve subgrupos do tenant com contagem agregada de membros.
func (r *Repository) ListSubgrupos(ctx context.Context, tenantID uuid.UUID) ([]Subgrupo, error) {
	const query = `
        SELECT ` + subgrupoColumns + `,
               (SELECT count(*) FROM subgrupo_medicos sm WHERE sm.subgrupo_id = s.id) AS total_medicos
        FROM subgrupos s
        WHERE s.tenant_id = $1
        ORDER BY s.nome ASC
    `

	rows, err := r.pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subgrupos []Subgrupo
	for rows.Next() {
		var s Subgrupo
		if err := rows.Scan(&s.ID, &s.TenantID, &s.Nome, &s.Descricao, &s.Ativo, &s.CriadoEm, &s.TotalMedicos); err != nil {
			return nil, err
		}
		subgrupos = append(subgrupos, s)
	}

	return subgrupos, rows.Err()
}

// DeleteSubgrupo remove o subgrupo; vínculos caem por cascade no schema.
func (r *Repository) DeleteSubgrupo(ctx context.Context, tenantID, id uuid.UUID) error {
	// vínculos saem na mesma transação que o subgrupo
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM subgrupo_medicos WHERE tenant_id = $1 AND subgrupo_id = $2`, tenantID, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM contrato_subgrupos WHERE tenant_id = $1 AND subgrupo_id = $2`, tenantID, id); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM subgrupos WHERE tenant_id = $1 AND id = $2`, tenantID, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("subgrupo não encontrado")
		}
		return nil
	})
}

// CreateEquipe insere uma equipe ativa.
func (r *Repository) CreateEquipe(ctx context.Context, tenantID uuid.UUID, input EquipeInput) (*Equipe, error) {
	const query = `
        INSERT INTO equipes (tenant_id, subgrupo_id, nome, descricao, ativo)
        VALUES ($1, $2, $3, $4, true)
        RETURNING id, tenant_id, subgrupo_id, nome, descricao, ativo, criado_em
    `

	row := r.pool.QueryRow(ctx, query, tenantID, input.SubgrupoID, strings.TrimSpace(input.Nome), input.Descricao)

	var e Equipe
	if err := row.Scan(&e.ID, &e.TenantID, &e.SubgrupoID, &e.Nome, &e.Descricao, &e.Ativo, &e.CriadoEm); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetEquipe busca equipe do tenant com contagem de membros.
func (r *Repository) GetEquipe(ctx context.Context, tenantID, id uuid.UUID) (*Equipe, error) {
	const query = `
        SELECT e.id, e.tenant_id, e.subgrupo_id, e.nome, e.descricao, e.ativo, e.criado_em,
               (SELECT count(*) FROM equipe_medicos em WHERE em.equipe_id = e.id) AS total_medicos
        FROM equipes e
        WHERE e.tenant_id = $1 AND e.id = $2
    `

	row := r.pool.QueryRow(ctx, query, tenantID, id)

	var e Equipe
	if err := row.Scan(&e.ID, &e.TenantID, &e.SubgrupoID, &e.Nome, &e.Descricao, &e.Ativo, &e.CriadoEm, &e.TotalMedicos); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("equipe não encontrada")
		}
		return nil, err
	}
	return &e, nil
}

// ListEquipes devolve equipes do tenant, com filtro opcional por subgrupo.
func (r *Repository) ListEquipes(ctx context.Context, tenantID uuid.UUID, subgrupoID *uuid.UUID) ([]Equipe, error) {
	const query = `
        SELECT e.id, e.tenant_id, e.subgrupo_id, e.nome, e.descricao, e.ativo, e.criado_em,
               (SELECT count(*) FROM equipe_medicos em WHERE em.equipe_id = e.id) AS total_medicos
        FROM equipes e
        WHERE e.tenant_id = $1
          AND ($2::uuid IS NULL OR e.subgrupo_id = $2)
        ORDER BY e.nome ASC
    `

	rows, err := r.pool.Query(ctx, query, tenantID, subgrupoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var equipes []Equipe
	for rows.Next() {
		var e Equipe
		if err := rows.Scan(&e.ID, &e.TenantID, &e.SubgrupoID, &e.Nome, &e.Descricao, &e.Ativo, &e.CriadoEm, &e.TotalMedicos); err != nil {
			return nil, err
		}
		equipes = append(equipes, e)
	}

	return equipes, rows.Err()
}

// DeleteEquipe remove a equipe; vínculos caem por cascade no schema.
func (r *Repository) DeleteEquipe(ctx context.Context, tenantID, id uuid.UUID) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM equipe_medicos WHERE tenant_id = $1 AND equipe_id = $2`, tenantID, id); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM contrato_equipes WHERE tenant_id = $1 AND equipe_id = $2`, tenantID, id); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, `DELETE FROM equipes WHERE tenant_id = $1 AND id = $2`, tenantID, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("equipe não encontrada")
		}
		return nil
	})
}

// UpsertSubgrupoMedico vincula médico ao subgrupo; repetição é no-op.
// Devolve true quando uma nova linha foi criada.
func (r *Repository) UpsertSubgrupoMedico(ctx context.Context, tenantID, subgrupoID, medicoID uuid.UUID) (bool, error) {
	const query = `
        INSERT INTO subgrupo_medicos (tenant_id, subgrupo_id, medico_id)
        VALUES ($1, $2, $3)
        ON CONFLICT (tenant_id, subgrupo_id, medico_id) DO NOTHING
    `

	tag, err := r.pool.Exec(ctx, query, tenantID, subgrupoID, medicoID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveSubgrupoMedico desfaz o vínculo médico↔subgrupo.
func (r *Repository) RemoveSubgrupoMedico(ctx context.Context, tenantID, subgrupoID, medicoID uuid.UUID) error {
	const query = `
        DELETE FROM subgrupo_medicos
        WHERE tenant_id = $1 AND subgrupo_id = $2 AND medico_id = $3
    `

	tag, err := r.pool.Exec(ctx, query, tenantID, subgrupoID, medicoID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("vínculo não encontrado")
	}
	return nil
}

// UpsertEquipeMedico vincula médico à equipe; repetição é no-op.
func (r *Repository) UpsertEquipeMedico(ctx context.Context, tenantID, equipeID, medicoID uuid.UUID) (bool, error) {
	const query = `
        INSERT INTO equipe_medicos (tenant_id, equipe_id, medico_id)
        VALUES ($1, $2, $3)
        ON CONFLICT (tenant_id, equipe_id, medico_id) DO NOTHING
    `

	tag, err := r.pool.Exec(ctx, query, tenantID, equipeID, medicoID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveEquipeMedico desfaz o vínculo médico↔equipe.
func (r *Repository) RemoveEquipeMedico(ctx context.Context, tenantID, equipeID, medicoID uuid.UUID) error {
	const query = `
        DELETE FROM equipe_medicos
        WHERE tenant_id = $1 AND equipe_id = $2 AND medico_id = $3
    `

	tag, err := r.pool.Exec(ctx, query, tenantID, equipeID, medicoID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("vínculo não encontrado")
	}
	return nil
}

// UpsertContratoSubgrupo vincula subgrupo ao contrato; repetição é no-op.
func (r *Repository) UpsertContratoSubgrupo(ctx context.Context, tenantID, contratoID, subgrupoID uuid.UUID) (bool, error) {
	const query = `
        INSERT INTO contrato_subgrupos (tenant_id, contrato_ativo_id, subgrupo_id)
        VALUES ($1, $2, $3)
        ON CONFLICT (tenant_id, contrato_ativo_id, subgrupo_id) DO NOTHING
    `

	tag, err := r.pool.Exec(ctx, query, tenantID, contratoID, subgrupoID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpsertContratoEquipe vincula equipe ao contrato; repetição é no-op.
func (r *Repository) UpsertContratoEquipe(ctx context.Context, tenantID, contratoID, equipeID uuid.UUID) (bool, error) {
	const query = `
        INSERT INTO contrato_equipes (tenant_id, contrato_ativo_id, equipe_id)
        VALUES ($1, $2, $3)
        ON CONFLICT (tenant_id, contrato_ativo_id, equipe_id) DO NOTHING
    `

	tag, err := r.pool.Exec(ctx, query, tenantID, contratoID, equipeID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func scanContrato(row pgx.Row) (*ContratoAtivo, error) {
	var c ContratoAtivo
	if err := row.Scan(&c.ID, &c.TenantID, &c.Nome, &c.DataInicio, &c.DataFim, &c.Ativo, &c.UsaEscala, &c.UsaPonto, &c.CriadoEm); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("contrato não encontrado")
		}
		return nil, err
	}
	return &c, nil
}
