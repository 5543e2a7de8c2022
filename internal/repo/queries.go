package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Queries executa consultas de sessão sobre o pool compartilhado.
type Queries struct {
	pool *pgxpool.Pool
}

// NewQueries cria o acesso a consultas.
func NewQueries(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// InsertRefreshToken grava um novo refresh token.
func (q *Queries) InsertRefreshToken(ctx context.Context, arg InsertRefreshTokenParams) (TokenRefresh, error) {
	const query = `
        INSERT INTO tokens_refresh (id, subject, audience, tenant_id, token_hash, expiracao, criado_em, revogado)
        VALUES ($1, $2, $3, $4, $5, $6, $7, false)
        RETURNING id, subject, audience, tenant_id, token_hash, expiracao, criado_em, revogado
    `

	row := q.pool.QueryRow(ctx, query, arg.ID, arg.Subject, arg.Audience, arg.TenantID, arg.TokenHash, arg.Expiracao, arg.CriadoEm)
	return scanTokenRefresh(row)
}

// GetRefreshTokenByHash busca refresh token pelo hash persistido.
func (q *Queries) GetRefreshTokenByHash(ctx context.Context, tokenHash string) (TokenRefresh, error) {
	const query = `
        SELECT id, subject, audience, tenant_id, token_hash, expiracao, criado_em, revogado
        FROM tokens_refresh
        WHERE token_hash = $1
    `

	return scanTokenRefresh(q.pool.QueryRow(ctx, query, tokenHash))
}

// RevokeRefreshToken marca o token como revogado.
func (q *Queries) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	const query = `
        UPDATE tokens_refresh
        SET revogado = true
        WHERE token_hash = $1
    `

	tag, err := q.pool.Exec(ctx, query, tokenHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InvalidateOtherRefreshTokens revoga todos os tokens do sujeito na
// audience, exceto o recém-emitido.
func (q *Queries) InvalidateOtherRefreshTokens(ctx context.Context, subject uuid.UUID, audience, keepHash string) error {
	const query = `
        UPDATE tokens_refresh
        SET revogado = true
        WHERE subject = $1 AND audience = $2 AND token_hash <> $3 AND revogado = false
    `

	_, err := q.pool.Exec(ctx, query, subject, audience, keepHash)
	return err
}

func scanTokenRefresh(row pgx.Row) (TokenRefresh, error) {
	var t TokenRefresh
	err := row.Scan(&t.ID, &t.Subject, &t.Audience, &t.TenantID, &t.TokenHash, &t.Expiracao, &t.CriadoEm, &t.Revogado)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TokenRefresh{}, ErrNotFound
		}
		return TokenRefresh{}, err
	}
	return t, nil
}
