package ponto

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escalamedica/plantao/internal/apperr"
)

// Repository provê acesso ao armazenamento do ponto eletrônico.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria o repositório do ponto.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const registroColumns = `id, tenant_id, medico_id, escala_id, check_in_at, check_out_at, duracao_minutos, observacao, origem, criado_em`

// GetAberto devolve o registro aberto do médico, ou nil quando não há.
func (r *Repository) GetAberto(ctx context.Context, tenantID, medicoID uuid.UUID) (*RegistroPonto, error) {
	const query = `
        SELECT ` + registroColumns + `
        FROM registros_ponto
        WHERE tenant_id = $1 AND medico_id = $2 AND check_out_at IS NULL
    `

	reg, err := scanRegistro(r.pool.QueryRow(ctx, query, tenantID, medicoID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return reg, nil
}

// InsertAbertura cria o registro aberto. O índice único parcial sobre
// (tenant_id, medico_id) WHERE check_out_at IS NULL fecha a corrida entre
// dois check-ins simultâneos; a violação vira ConflictError.
func (r *Repository) InsertAbertura(ctx context.Context, tenantID, medicoID uuid.UUID, escalaID *uuid.UUID, checkInAt time.Time, observacao *string, origem string) (*RegistroPonto, error) {
	const query = `
        INSERT INTO registros_ponto (tenant_id, medico_id, escala_id, check_in_at, observacao, origem)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING ` + registroColumns + `
    `

	reg, err := scanRegistro(r.pool.QueryRow(ctx, query, tenantID, medicoID, escalaID, checkInAt, observacao, origem))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperr.Conflict("check-in já aberto")
		}
		return nil, err
	}
	return reg, nil
}

// Fechar encerra o registro aberto, preservando a observação original
// quando nenhuma nova é informada.
func (r *Repository) Fechar(ctx context.Context, tenantID, id uuid.UUID, checkOutAt time.Time, duracaoMinutos int, observacao *string) (*RegistroPonto, error) {
	const query = `
        UPDATE registros_ponto
        SET check_out_at = $3,
            duracao_minutos = $4,
            observacao = COALESCE($5, observacao)
        WHERE tenant_id = $1 AND id = $2 AND check_out_at IS NULL
        RETURNING ` + registroColumns + `
    `

	reg, err := scanRegistro(r.pool.QueryRow(ctx, query, tenantID, id, checkOutAt, duracaoMinutos, observacao))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("nenhum check-in aberto")
		}
		return nil, err
	}
	return reg, nil
}

// ListDoMedico devolve os registros do médico no intervalo (inclusivo).
func (r *Repository) ListDoMedico(ctx context.Context, tenantID, medicoID uuid.UUID, de, ate time.Time) ([]RegistroPonto, error) {
	const query = `
        SELECT ` + registroColumns + `
        FROM registros_ponto
        WHERE tenant_id = $1 AND medico_id = $2 AND check_in_at >= $3 AND check_in_at <= $4
        ORDER BY check_in_at ASC
    `

	rows, err := r.pool.Query(ctx, query, tenantID, medicoID, de, ate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRegistros(rows)
}

// ListRegistros devolve registros paginados para a visão administrativa.
func (r *Repository) ListRegistros(ctx context.Context, tenantID uuid.UUID, filtro RegistroFiltro) ([]RegistroPonto, int, error) {
	const countQuery = `
        SELECT COUNT(*)
        FROM registros_ponto
        WHERE tenant_id = $1
          AND ($2::uuid IS NULL OR medico_id = $2)
          AND ($3::timestamptz IS NULL OR check_in_at >= $3)
          AND ($4::timestamptz IS NULL OR check_in_at <= $4)
    `
	const query = `
        SELECT ` + registroColumns + `
        FROM registros_ponto
        WHERE tenant_id = $1
          AND ($2::uuid IS NULL OR medico_id = $2)
          AND ($3::timestamptz IS NULL OR check_in_at >= $3)
          AND ($4::timestamptz IS NULL OR check_in_at <= $4)
        ORDER BY check_in_at DESC
        LIMIT $5 OFFSET $6
    `

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, tenantID, filtro.MedicoID, filtro.De, filtro.Ate).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (filtro.Page - 1) * filtro.Limit
	rows, err := r.pool.Query(ctx, query, tenantID, filtro.MedicoID, filtro.De, filtro.Ate, filtro.Limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	registros, err := collectRegistros(rows)
	if err != nil {
		return nil, 0, err
	}
	return registros, total, nil
}

const configColumns = `id, tenant_id, contrato_ativo_id, subgrupo_id, equipe_id, horas_mensais, valor_hora, hora_entrada, hora_saida, tolerancia_minutos, latitude, longitude, raio_metros, endereco`

// UpsertConfig grava a configuração do escopo (contrato, subgrupo, equipe).
func (r *Repository) UpsertConfig(ctx context.Context, cfg ConfigPonto) (*ConfigPonto, error) {
	const query = `
        INSERT INTO configs_ponto (tenant_id, contrato_ativo_id, subgrupo_id, equipe_id, horas_mensais, valor_hora, hora_entrada, hora_saida, tolerancia_minutos, latitude, longitude, raio_metros, endereco)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        ON CONFLICT (tenant_id, contrato_ativo_id, subgrupo_id, equipe_id)
        DO UPDATE SET horas_mensais = EXCLUDED.horas_mensais,
                      valor_hora = EXCLUDED.valor_hora,
                      hora_entrada = EXCLUDED.hora_entrada,
                      hora_saida = EXCLUDED.hora_saida,
                      tolerancia_minutos = EXCLUDED.tolerancia_minutos,
                      latitude = EXCLUDED.latitude,
                      longitude = EXCLUDED.longitude,
                      raio_metros = EXCLUDED.raio_metros,
                      endereco = EXCLUDED.endereco
        RETURNING ` + configColumns + `
    `

	row := r.pool.QueryRow(ctx, query, cfg.TenantID, cfg.ContratoAtivoID, cfg.SubgrupoID, cfg.EquipeID,
		cfg.HorasMensais, cfg.ValorHora, cfg.HoraEntrada, cfg.HoraSaida, cfg.ToleranciaMinutos,
		cfg.Latitude, cfg.Longitude, cfg.RaioMetros, cfg.Endereco)
	return scanConfig(row)
}

// ListConfigs devolve as configurações do tenant, com filtro opcional
// por contrato.
func (r *Repository) ListConfigs(ctx context.Context, tenantID uuid.UUID, contratoID *uuid.UUID) ([]ConfigPonto, error) {
	const query = `
        SELECT ` + configColumns + `
        FROM configs_ponto
        WHERE tenant_id = $1
          AND ($2::uuid IS NULL OR contrato_ativo_id = $2)
        ORDER BY hora_entrada ASC
    `

	rows, err := r.pool.Query(ctx, query, tenantID, contratoID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []ConfigPonto
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, *cfg)
	}

	return configs, rows.Err()
}

// ResolveConfig encontra a configuração aplicável ao médico na escala:
// mesmo contrato da escala e um subgrupo compartilhado entre a escala e o
// médico. Ausência de configuração devolve nil.
func (r *Repository) ResolveConfig(ctx context.Context, tenantID, escalaID, medicoID uuid.UUID) (*ConfigPonto, error) {
	const query = `
        SELECT ` + prefixConfigColumns + `
        FROM configs_ponto c
        JOIN escalas e ON e.contrato_ativo_id = c.contrato_ativo_id AND e.tenant_id = c.tenant_id
        JOIN escala_subgrupos es ON es.escala_id = e.id AND es.subgrupo_id = c.subgrupo_id AND es.tenant_id = c.tenant_id
        JOIN subgrupo_medicos sm ON sm.subgrupo_id = c.subgrupo_id AND sm.tenant_id = c.tenant_id
        WHERE c.tenant_id = $1 AND e.id = $2 AND sm.medico_id = $3
        LIMIT 1
    `

	cfg, err := scanConfig(r.pool.QueryRow(ctx, query, tenantID, escalaID, medicoID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return cfg, nil
}

const prefixConfigColumns = `c.id, c.tenant_id, c.contrato_ativo_id, c.subgrupo_id, c.equipe_id, c.horas_mensais, c.valor_hora, c.hora_entrada, c.hora_saida, c.tolerancia_minutos, c.latitude, c.longitude, c.raio_metros, c.endereco`

func scanRegistro(row pgx.Row) (*RegistroPonto, error) {
	var reg RegistroPonto
	if err := row.Scan(&reg.ID, &reg.TenantID, &reg.MedicoID, &reg.EscalaID, &reg.CheckInAt, &reg.CheckOutAt,
		&reg.DuracaoMinutos, &reg.Observacao, &reg.Origem, &reg.CriadoEm); err != nil {
		return nil, err
	}
	return &reg, nil
}

func collectRegistros(rows pgx.Rows) ([]RegistroPonto, error) {
	var registros []RegistroPonto
	for rows.Next() {
		reg, err := scanRegistro(rows)
		if err != nil {
			return nil, err
		}
		registros = append(registros, *reg)
	}
	return registros, rows.Err()
}

func scanConfig(row pgx.Row) (*ConfigPonto, error) {
	var cfg ConfigPonto
	if err := row.Scan(&cfg.ID, &cfg.TenantID, &cfg.ContratoAtivoID, &cfg.SubgrupoID, &cfg.EquipeID,
		&cfg.HorasMensais, &cfg.ValorHora, &cfg.HoraEntrada, &cfg.HoraSaida, &cfg.ToleranciaMinutos,
		&cfg.Latitude, &cfg.Longitude, &cfg.RaioMetros, &cfg.Endereco); err != nil {
		return nil, err
	}
	return &cfg, nil
}
