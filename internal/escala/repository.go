package escala

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escalamedica/plantao/internal/apperr"
	"github.com/escalamedica/plantao/internal/medico"
)

// Repository provê acesso ao armazenamento de escalas, alocações e plantões.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria o repositório de escalas.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const escalaColumns = `id, tenant_id, contrato_ativo_id, nome, data_inicio, data_fim, ativo, criado_em`

// CreateEscala insere uma escala ativa.
func (r *Repository) CreateEscala(ctx context.Context, tenantID uuid.UUID, input EscalaInput) (*Escala, error) {
	const query = `
        INSERT INTO escalas (tenant_id, contrato_ativo_id, nome, data_inicio, data_fim, ativo)
        VALUES ($1, $2, $3, $4, $5, true)
        RETURNING ` + escalaColumns + `
    `

	row := r.pool.QueryRow(ctx, query, tenantID, input.ContratoAtivoID, strings.TrimSpace(input.Nome), input.DataInicio, input.DataFim)
	return scanEscala(row)
}

// GetEscala busca escala do tenant.
func (r *Repository) GetEscala(ctx context.Context, tenantID, id uuid.UUID) (*Escala, error) {
	const query = `
        SELECT ` + escalaColumns + `
        FROM escalas
        WHERE tenant_id = $1 AND id = $2
    `

	row := r.pool.QueryRow(ctx, query, tenantID, id)
	return scanEscala(row)
}

// ListEscalas devolve escalas do tenant, com filtro opcional por contrato.
func (r *Repository) ListEscalas(ctx context.Context, tenantID uuid.UUID, contratoID *uuid.UUID) ([]Escala, error) {
	const query = `
        SELECT ` + escalaColumns + `
        FROM escalas
        WHERE tenant_id = $1
          AND ($2::uuid IS NULL OR contrato_ativo_id = $2)
        ORDER BY data_inicio DESC
    `

	rows, err := r.pool.Query(ctx, query, tenantID, contratoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var escalas []Escala
	for rows.Next() {
		e, err := scanEscala(rows)
		if err != nil {
			return nil, err
		}
		escalas = append(escalas, *e)
	}

	return escalas, rows.Err()
}

// SetEscalaAtivo liga/desliga a escala.
func (r *Repository) SetEscalaAtivo(ctx context.Context, tenantID, id uuid.UUID, ativo bool) error {
	const query = `
        UPDATE escalas
        SET ativo = $3
        WHERE tenant_id = $1 AND id = $2
    `

	tag, err := r.pool.Exec(ctx, query, tenantID, id, ativo)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("escala não encontrada")
	}
	return nil
}

// UpsertEscalaSubgrupo vincula subgrupo à escala; repetição é no-op.
func (r *Repository) UpsertEscalaSubgrupo(ctx context.Context, tenantID, escalaID, subgrupoID uuid.UUID) (bool, error) {
	const query = `
        INSERT INTO escala_subgrupos (tenant_id, escala_id, subgrupo_id)
        VALUES ($1, $2, $3)
        ON CONFLICT (tenant_id, escala_id, subgrupo_id) DO NOTHING
    `

	tag, err := r.pool.Exec(ctx, query, tenantID, escalaID, subgrupoID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpsertEscalaEquipe vincula equipe à escala; repetição é no-op.
func (r *Repository) UpsertEscalaEquipe(ctx context.Context, tenantID, escalaID, equipeID uuid.UUID) (bool, error) {
	const query = `
        INSERT INTO escala_equipes (tenant_id, escala_id, equipe_id)
        VALUES ($1, $2, $3)
        ON CONFLICT (tenant_id, escala_id, equipe_id) DO NOTHING
    `

	tag, err := r.pool.Exec(ctx, query, tenantID, escalaID, equipeID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpsertAlocacao vincula médico à escala pela chave natural; reativa o
// vínculo quando já existe.
func (r *Repository) UpsertAlocacao(ctx context.Context, tenantID, escalaID, medicoID uuid.UUID, cargo *string, valorHora *float64) (*Alocacao, error) {
	const query = `
        INSERT INTO escala_medicos (tenant_id, escala_id, medico_id, ativo, cargo, valor_hora)
        VALUES ($1, $2, $3, true, $4, $5)
        ON CONFLICT (tenant_id, escala_id, medico_id)
        DO UPDATE SET ativo = true,
                      cargo = COALESCE(EXCLUDED.cargo, escala_medicos.cargo),
                      valor_hora = COALESCE(EXCLUDED.valor_hora, escala_medicos.valor_hora)
        RETURNING id, tenant_id, escala_id, medico_id, ativo, cargo, valor_hora, criado_em
    `

	row := r.pool.QueryRow(ctx, query, tenantID, escalaID, medicoID, cargo, valorHora)

	var a Alocacao
	if err := row.Scan(&a.ID, &a.TenantID, &a.EscalaID, &a.MedicoID, &a.Ativo, &a.Cargo, &a.ValorHora, &a.CriadoEm); err != nil {
		return nil, err
	}
	return &a, nil
}

// DesativarAlocacao desliga o vínculo médico↔escala.
func (r *Repository) DesativarAlocacao(ctx context.Context, tenantID, escalaID, medicoID uuid.UUID) error {
	const query = `
        UPDATE escala_medicos
        SET ativo = false
        WHERE tenant_id = $1 AND escala_id = $2 AND medico_id = $3
    `

	tag, err := r.pool.Exec(ctx, query, tenantID, escalaID, medicoID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("alocação não encontrada")
	}
	return nil
}

// ListAlocacoes devolve alocações ativas da escala com resumo do médico.
func (r *Repository) ListAlocacoes(ctx context.Context, tenantID, escalaID uuid.UUID) ([]Alocacao, error) {
	const query = `
        SELECT em.id, em.tenant_id, em.escala_id, em.medico_id, em.ativo, em.cargo, em.valor_hora, em.criado_em,
               m.nome, m.crm, m.email, m.telefone
        FROM escala_medicos em
        JOIN medicos m ON m.id = em.medico_id AND m.tenant_id = em.tenant_id
        WHERE em.tenant_id = $1 AND em.escala_id = $2 AND em.ativo = true
        ORDER BY m.nome ASC
    `

	rows, err := r.pool.Query(ctx, query, tenantID, escalaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alocacoes []Alocacao
	for rows.Next() {
		var (
			a      Alocacao
			resumo medico.Resumo
		)
		if err := rows.Scan(&a.ID, &a.TenantID, &a.EscalaID, &a.MedicoID, &a.Ativo, &a.Cargo, &a.ValorHora, &a.CriadoEm,
			&resumo.Nome, &resumo.CRM, &resumo.Email, &resumo.Telefone); err != nil {
			return nil, err
		}
		resumo.ID = a.MedicoID
		a.Medico = &resumo
		alocacoes = append(alocacoes, a)
	}

	return alocacoes, rows.Err()
}

// HasAlocacaoAtiva verifica vínculo ativo do médico com a escala.
func (r *Repository) HasAlocacaoAtiva(ctx context.Context, tenantID, escalaID, medicoID uuid.UUID) (bool, error) {
	const query = `
        SELECT EXISTS (
            SELECT 1 FROM escala_medicos
            WHERE tenant_id = $1 AND escala_id = $2 AND medico_id = $3 AND ativo = true
        )
    `

	var exists bool
	if err := r.pool.QueryRow(ctx, query, tenantID, escalaID, medicoID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListEscalasDoMedico devolve escalas ativas com alocação ativa do médico,
// deduplicadas, alocação mais recente primeiro.
func (r *Repository) ListEscalasDoMedico(ctx context.Context, tenantID, medicoID uuid.UUID) ([]Escala, error) {
	const query = `
        SELECT DISTINCT ON (e.id) e.id, e.tenant_id, e.contrato_ativo_id, e.nome, e.data_inicio, e.data_fim, e.ativo, e.criado_em, em.criado_em AS alocado_em
        FROM escalas e
        JOIN escala_medicos em ON em.escala_id = e.id AND em.tenant_id = e.tenant_id
        WHERE e.tenant_id = $1 AND em.medico_id = $2 AND em.ativo = true AND e.ativo = true
        ORDER BY e.id, alocado_em DESC
    `

	rows, err := r.pool.Query(ctx, query, tenantID, medicoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type escalaAlocada struct {
		escala    Escala
		alocadoEm time.Time
	}

	var alocadas []escalaAlocada
	for rows.Next() {
		var item escalaAlocada
		e := &item.escala
		if err := rows.Scan(&e.ID, &e.TenantID, &e.ContratoAtivoID, &e.Nome, &e.DataInicio, &e.DataFim, &e.Ativo, &e.CriadoEm, &item.alocadoEm); err != nil {
			return nil, err
		}
		alocadas = append(alocadas, item)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	// Ordena pela alocação mais recente após a deduplicação por escala.
	for i := 1; i < len(alocadas); i++ {
		for j := i; j > 0 && alocadas[j].alocadoEm.After(alocadas[j-1].alocadoEm); j-- {
			alocadas[j], alocadas[j-1] = alocadas[j-1], alocadas[j]
		}
	}

	escalas := make([]Escala, 0, len(alocadas))
	for _, item := range alocadas {
		escalas = append(escalas, item.escala)
	}
	return escalas, nil
}

// UpsertPlantao grava a célula (escala, data, grade), substituindo médico e
// valor quando já existe.
func (r *Repository) UpsertPlantao(ctx context.Context, tenantID, escalaID uuid.UUID, data time.Time, gradeID string, medicoID uuid.UUID, valorHora float64) (*Plantao, error) {
	const query = `
        INSERT INTO escala_plantoes (tenant_id, escala_id, data, grade_id, medico_id, valor_hora)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (tenant_id, escala_id, data, grade_id)
        DO UPDATE SET medico_id = EXCLUDED.medico_id,
                      valor_hora = EXCLUDED.valor_hora
        RETURNING id, tenant_id, escala_id, data, grade_id, medico_id, valor_hora, criado_em
    `

	row := r.pool.QueryRow(ctx, query, tenantID, escalaID, data, gradeID, medicoID, valorHora)

	var p Plantao
	if err := row.Scan(&p.ID, &p.TenantID, &p.EscalaID, &p.Data, &p.GradeID, &p.MedicoID, &p.ValorHora, &p.CriadoEm); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeletePlantao remove a célula pelo id; ausência é NotFound.
func (r *Repository) DeletePlantao(ctx context.Context, tenantID, escalaID, plantaoID uuid.UUID) error {
	const query = `
        DELETE FROM escala_plantoes
        WHERE tenant_id = $1 AND escala_id = $2 AND id = $3
    `

	tag, err := r.pool.Exec(ctx, query, tenantID, escalaID, plantaoID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("plantão não encontrado")
	}
	return nil
}

// ListPlantoes devolve plantões no intervalo (inclusivo) com resumo do médico.
func (r *Repository) ListPlantoes(ctx context.Context, tenantID, escalaID uuid.UUID, de, ate time.Time) ([]Plantao, error) {
	const query = `
        SELECT p.id, p.tenant_id, p.escala_id, p.data, p.grade_id, p.medico_id, p.valor_hora, p.criado_em,
               m.nome, m.crm, m.email, m.telefone
        FROM escala_plantoes p
        JOIN medicos m ON m.id = p.medico_id AND m.tenant_id = p.tenant_id
        WHERE p.tenant_id = $1 AND p.escala_id = $2 AND p.data >= $3 AND p.data <= $4
        ORDER BY p.data ASC, p.grade_id ASC
    `

	rows, err := r.pool.Query(ctx, query, tenantID, escalaID, de, ate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plantoes []Plantao
	for rows.Next() {
		var (
			p      Plantao
			resumo medico.Resumo
		)
		if err := rows.Scan(&p.ID, &p.TenantID, &p.EscalaID, &p.Data, &p.GradeID, &p.MedicoID, &p.ValorHora, &p.CriadoEm,
			&resumo.Nome, &resumo.CRM, &resumo.Email, &resumo.Telefone); err != nil {
			return nil, err
		}
		resumo.ID = p.MedicoID
		p.Medico = &resumo
		plantoes = append(plantoes, p)
	}

	return plantoes, rows.Err()
}

// UpsertValorPlantao grava o valor-hora padrão por (contrato, subgrupo, grade).
func (r *Repository) UpsertValorPlantao(ctx context.Context, tenantID, contratoID, subgrupoID uuid.UUID, gradeID string, valorHora float64) (*ValorPlantao, error) {
	const query = `
        INSERT INTO valores_plantao (tenant_id, contrato_ativo_id, subgrupo_id, grade_id, valor_hora)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (tenant_id, contrato_ativo_id, subgrupo_id, grade_id)
        DO UPDATE SET valor_hora = EXCLUDED.valor_hora
        RETURNING id, tenant_id, contrato_ativo_id, subgrupo_id, grade_id, valor_hora
    `

	row := r.pool.QueryRow(ctx, query, tenantID, contratoID, subgrupoID, gradeID, valorHora)

	var v ValorPlantao
	if err := row.Scan(&v.ID, &v.TenantID, &v.ContratoAtivoID, &v.SubgrupoID, &v.GradeID, &v.ValorHora); err != nil {
		return nil, err
	}
	return &v, nil
}

// ListValoresPlantao devolve a tabela de valores do contrato.
func (r *Repository) ListValoresPlantao(ctx context.Context, tenantID, contratoID uuid.UUID) ([]ValorPlantao, error) {
	const query = `
        SELECT id, tenant_id, contrato_ativo_id, subgrupo_id, grade_id, valor_hora
        FROM valores_plantao
        WHERE tenant_id = $1 AND contrato_ativo_id = $2
        ORDER BY grade_id ASC
    `

	rows, err := r.pool.Query(ctx, query, tenantID, contratoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var valores []ValorPlantao
	for rows.Next() {
		var v ValorPlantao
		if err := rows.Scan(&v.ID, &v.TenantID, &v.ContratoAtivoID, &v.SubgrupoID, &v.GradeID, &v.ValorHora); err != nil {
			return nil, err
		}
		valores = append(valores, v)
	}

	return valores, rows.Err()
}

// ResolveValorHora encontra o valor padrão para a célula: cruza os subgrupos
// vinculados à escala com os subgrupos do médico e pega o valor configurado
// para o contrato da escala na grade pedida.
func (r *Repository) ResolveValorHora(ctx context.Context, tenantID, escalaID, medicoID uuid.UUID, gradeID string) (*float64, error) {
	const query = `
        SELECT v.valor_hora
        FROM valores_plantao v
        JOIN escalas e ON e.contrato_ativo_id = v.contrato_ativo_id AND e.tenant_id = v.tenant_id
        JOIN escala_subgrupos es ON es.escala_id = e.id AND es.subgrupo_id = v.subgrupo_id AND es.tenant_id = v.tenant_id
        JOIN subgrupo_medicos sm ON sm.subgrupo_id = v.subgrupo_id AND sm.tenant_id = v.tenant_id
        WHERE v.tenant_id = $1 AND e.id = $2 AND sm.medico_id = $3 AND v.grade_id = $4
        LIMIT 1
    `

	var valor float64
	if err := r.pool.QueryRow(ctx, query, tenantID, escalaID, medicoID, gradeID).Scan(&valor); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &valor, nil
}

func scanEscala(row pgx.Row) (*Escala, error) {
	var e Escala
	if err := row.Scan(&e.ID, &e.TenantID, &e.ContratoAtivoID, &e.Nome, &e.DataInicio, &e.DataFim, &e.Ativo, &e.CriadoEm); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("escala não encontrada")
		}
		return nil, err
	}
	return &e, nil
}
