package medico

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/escalamedica/plantao/internal/apperr"
)

// Repository provê acesso ao armazenamento de médicos.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria um novo repositório de médicos.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const medicoColumns = `id, tenant_id, nome, cpf, crm, email, telefone, senha_hash, ativo, criado_em, atualizado_em`

// GetByID busca médico do tenant pelo identificador.
func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*Medico, error) {
	const query = `
        SELECT ` + medicoColumns + `
        FROM medicos
        WHERE tenant_id = $1 AND id = $2
    `

	row := r.pool.QueryRow(ctx, query, tenantID, id)
	return scanMedico(row)
}

// GetByCPF busca médico do tenant pelo CPF normalizado.
func (r *Repository) GetByCPF(ctx context.Context, tenantID uuid.UUID, cpf string) (*Medico, error) {
	const query = `
        SELECT ` + medicoColumns + `
        FROM medicos
        WHERE tenant_id = $1 AND cpf = $2
    `

	row := r.pool.QueryRow(ctx, query, tenantID, cpf)
	return scanMedico(row)
}

// GetByCRM busca médico do tenant pelo CRM.
func (r *Repository) GetByCRM(ctx context.Context, tenantID uuid.UUID, crm string) (*Medico, error) {
	const query = `
        SELECT ` + medicoColumns + `
        FROM medicos
        WHERE tenant_id = $1 AND crm = $2
    `

	row := r.pool.QueryRow(ctx, query, tenantID, crm)
	return scanMedico(row)
}

// GetByEmail busca médico do tenant pelo e-mail.
func (r *Repository) GetByEmail(ctx context.Context, tenantID uuid.UUID, email string) (*Medico, error) {
	const query = `
        SELECT ` + medicoColumns + `
        FROM medicos
        WHERE tenant_id = $1 AND lower(email) = lower($2)
    `

	row := r.pool.QueryRow(ctx, query, tenantID, email)
	return scanMedico(row)
}

// List devolve médicos do tenant com busca opcional por nome/CRM, paginados.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, search string, limit, offset int) ([]Medico, int, error) {
	search = strings.TrimSpace(search)
	pattern := "%" + search + "%"

	const countQuery = `
        SELECT count(*)
        FROM medicos
        WHERE tenant_id = $1
          AND ($2 = '' OR nome ILIKE $3 OR crm ILIKE $3)
    `

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, tenantID, search, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	const query = `
        SELECT ` + medicoColumns + `
        FROM medicos
        WHERE tenant_id = $1
          AND ($2 = '' OR nome ILIKE $3 OR crm ILIKE $3)
        ORDER BY nome ASC
        LIMIT $4 OFFSET $5
    `

	rows, err := r.pool.Query(ctx, query, tenantID, search, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var medicos []Medico
	for rows.Next() {
		m, err := scanMedico(rows)
		if err != nil {
			return nil, 0, err
		}
		medicos = append(medicos, *m)
	}

	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return medicos, total, nil
}

// Create insere um novo médico e devolve os dados persistidos.
func (r *Repository) Create(ctx context.Context, tenantID uuid.UUID, input CreateInput) (*Medico, error) {
	const query = `
        INSERT INTO medicos (tenant_id, nome, cpf, crm, email, telefone, ativo)
        VALUES ($1, $2, $3, $4, $5, $6, true)
        RETURNING ` + medicoColumns + `
    `

	row := r.pool.QueryRow(ctx, query, tenantID, strings.TrimSpace(input.Nome), input.CPF, input.CRM, input.Email, input.Telefone)
	m, err := scanMedico(row)
	if err != nil {
		// cadastro concorrente entre o pré-check do serviço e o insert
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, apperr.Conflict("CPF, CRM ou e-mail já cadastrado")
		}
		return nil, err
	}
	return m, nil
}

// Update altera os campos mutáveis do cadastro.
func (r *Repository) Update(ctx context.Context, tenantID, id uuid.UUID, input UpdateInput) (*Medico, error) {
	const query = `
        UPDATE medicos
        SET nome = $3,
            email = $4,
            telefone = $5,
            atualizado_em = now()
        WHERE tenant_id = $1 AND id = $2
        RETURNING ` + medicoColumns + `
    `

	row := r.pool.QueryRow(ctx, query, tenantID, id, strings.TrimSpace(input.Nome), input.Email, input.Telefone)
	return scanMedico(row)
}

// SetAtivo liga ou desliga o médico.
func (r *Repository) SetAtivo(ctx context.Context, tenantID, id uuid.UUID, ativo bool) error {
	const query = `
        UPDATE medicos
        SET ativo = $3,
            atualizado_em = now()
        WHERE tenant_id = $1 AND id = $2
    `

	tag, err := r.pool.Exec(ctx, query, tenantID, id, ativo)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("médico não encontrado")
	}
	return nil
}

// SetConvite grava o hash e a expiração do convite de primeiro acesso.
func (r *Repository) SetConvite(ctx context.Context, tenantID, id uuid.UUID, tokenHash string, expiraEm time.Time) error {
	const query = `
        UPDATE medicos
        SET convite_token_hash = $3,
            convite_expira_em = $4,
            atualizado_em = now()
        WHERE tenant_id = $1 AND id = $2
    `

	tag, err := r.pool.Exec(ctx, query, tenantID, id, tokenHash, expiraEm)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("médico não encontrado")
	}
	return nil
}

// GetByConviteHash localiza médico pelo hash do convite ainda pendente.
func (r *Repository) GetByConviteHash(ctx context.Context, tenantID uuid.UUID, tokenHash string) (*Medico, *Convite, error) {
	const query = `
        SELECT ` + medicoColumns + `, convite_token_hash, convite_expira_em
        FROM medicos
        WHERE tenant_id = $1 AND convite_token_hash = $2
    `

	row := r.pool.QueryRow(ctx, query, tenantID, tokenHash)

	var (
		m        Medico
		hash     *string
		expiraEm *time.Time
	)
	if err := row.Scan(&m.ID, &m.TenantID, &m.Nome, &m.CPF, &m.CRM, &m.Email, &m.Telefone, &m.SenhaHash, &m.Ativo, &m.CriadoEm, &m.AtualizadoEm, &hash, &expiraEm); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil, apperr.NotFound("convite não encontrado")
		}
		return nil, nil, err
	}

	if hash == nil || expiraEm == nil {
		return nil, nil, apperr.NotFound("convite não encontrado")
	}

	return &m, &Convite{TokenHash: *hash, ExpiraEm: *expiraEm}, nil
}

// ConsumirConvite define a senha e invalida o convite em uma única escrita.
func (r *Repository) ConsumirConvite(ctx context.Context, tenantID, id uuid.UUID, senhaHash string) error {
	const query = `
        UPDATE medicos
        SET senha_hash = $3,
            convite_token_hash = NULL,
            convite_expira_em = NULL,
            atualizado_em = now()
        WHERE tenant_id = $1 AND id = $2 AND convite_token_hash IS NOT NULL
    `

	tag, err := r.pool.Exec(ctx, query, tenantID, id, senhaHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("convite não encontrado")
	}
	return nil
}

func scanMedico(row pgx.Row) (*Medico, error) {
	var m Medico
	if err := row.Scan(&m.ID, &m.TenantID, &m.Nome, &m.CPF, &m.CRM, &m.Email, &m.Telefone, &m.SenhaHash, &m.Ativo, &m.CriadoEm, &m.AtualizadoEm); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperr.NotFound("médico não encontrado")
		}
		return nil, err
	}
	return &m, nil
}
