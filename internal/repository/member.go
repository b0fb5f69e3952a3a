package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/maharish/dinetrack/internal/domain/member"
)

const findMemberSQL = `SELECT phone, screen FROM members WHERE phone = $1`

var _ member.Repository = (*MemberRepository)(nil)

// MemberRepository implements member.Repository backed by PostgreSQL.
type MemberRepository struct {
	pool *pgxpool.Pool
}

// NewMemberRepository returns a MemberRepository that uses the given pool.
func NewMemberRepository(pool *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

// FindByPhone returns the member registered under the given phone number, or
// member.ErrNotFound.
func (r *MemberRepository) FindByPhone(ctx context.Context, phone string) (*member.Member, error) {
	var m member.Member
	err := r.pool.QueryRow(ctx, findMemberSQL, phone).Scan(&m.Phone, &m.Screen)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, member.ErrNotFound
		}
		return nil, fmt.Errorf("getting member by phone: %w", err)
	}
	return &m, nil
}
