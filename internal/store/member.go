package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/memberhub/apiserver/types"
)

// Postgres error code for unique_violation.
const pqUniqueViolation = "23505"

// MemberRepository handles persistence for members. Every query binds caller
// values as parameters; no value is ever interpolated into query text.
type MemberRepository struct {
	db *sql.DB
}

func NewMemberRepository(db *sql.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) GetByID(ctx context.Context, id string) (types.Member, error) {
	const query = `
		SELECT member_id, member_account, member_password, member_name,
			member_address, member_birthday, member_forum_name, member_profile,
			created_at, updated_at
		FROM members
		WHERE member_id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *MemberRepository) GetByAccount(ctx context.Context, account string) (types.Member, error) {
	const query = `
		SELECT member_id, member_account, member_password, member_name,
			member_address, member_birthday, member_forum_name, member_profile,
			created_at, updated_at
		FROM members
		WHERE member_account = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, account))
}

func (r *MemberRepository) CountByAccount(ctx context.Context, account string) (int, error) {
	const query = `SELECT COUNT(*) FROM members WHERE member_account = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, account).Scan(&count); err != nil {
		return 0, fmt.Errorf("count members: %w", err)
	}
	return count, nil
}

func (r *MemberRepository) Create(ctx context.Context, member types.Member) (types.Member, error) {
	now := time.Now()
	member.CreatedAt = now
	member.UpdatedAt = now

	const query = `
		INSERT INTO members (member_id, member_account, member_password,
			member_name, member_address, member_birthday, member_forum_name,
			member_profile, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.db.ExecContext(
		ctx,
		query,
		member.ID,
		member.Account,
		member.PasswordHash,
		member.Name,
		member.Address,
		member.Birthday,
		member.ForumName,
		member.Profile,
		member.CreatedAt,
		member.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return types.Member{}, ErrDuplicateAccount
		}
		return types.Member{}, fmt.Errorf("insert member: %w", err)
	}
	return member, nil
}

func (r *MemberRepository) scanOne(row *sql.Row) (types.Member, error) {
	var member types.Member
	err := row.Scan(
		&member.ID,
		&member.Account,
		&member.PasswordHash,
		&member.Name,
		&member.Address,
		&member.Birthday,
		&member.ForumName,
		&member.Profile,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Member{}, ErrNotFound
		}
		return types.Member{}, fmt.Errorf("query member: %w", err)
	}
	return member, nil
}
