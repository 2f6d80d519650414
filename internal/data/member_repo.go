package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/core"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
	apperrors "github.com/itsAR-VR/Community-Intellect-sub001/internal/errors"
)

const (
	defaultMemberListLimit = 50
	maxMemberListLimit     = 500
)

var memberColumns = []string{
	"id", "tenant_id", "name", "email", "slack_user_id",
	"contact_state", "last_contacted_at", "created_at", "updated_at",
}

// MemberRepo provides database operations for community members.
type MemberRepo struct {
	DB           *sql.DB
	sb           sq.StatementBuilderType
	timeProvider TimeProvider
}

// NewMemberRepo creates a new MemberRepo. A nil TimeProvider uses the system clock.
func NewMemberRepo(db *sql.DB, tp TimeProvider) *MemberRepo {
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &MemberRepo{
		DB:           db,
		sb:           sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		timeProvider: tp,
	}
}

var _ core.MemberRepository = (*MemberRepo)(nil)

// GetByID returns a member scoped to a tenant.
func (r *MemberRepo) GetByID(ctx context.Context, tenantID, id string) (*model.Member, error) {
	q := r.sb.Select(memberColumns...).
		From("members").
		Where(sq.Eq{"tenant_id": tenantID, "id": id})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build member select: %w", err)
	}
	m, err := scanMember(r.DB.QueryRowContext(ctx, sqlStr, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", apperrors.MapDBError(err))
	}
	return m, nil
}

// List returns members for a tenant filtered by contact state and a name/email search.
func (r *MemberRepo) List(ctx context.Context, opts model.MemberListOptions) ([]*model.Member, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultMemberListLimit
	}
	if limit > maxMemberListLimit {
		limit = maxMemberListLimit
	}
	offset := max(opts.Offset, 0)

	q := r.sb.Select(memberColumns...).
		From("members").
		Where(sq.Eq{"tenant_id": opts.TenantID}).
		OrderBy("name ASC", "id ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	if opts.ContactState != nil {
		q = q.Where(sq.Eq{"contact_state": string(*opts.ContactState)})
	}
	if term := strings.TrimSpace(opts.Query); term != "" {
		pattern := "%" + escapeLike(term) + "%"
		q = q.Where(sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"email": pattern},
		})
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build member list: %w", err)
	}
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", apperrors.MapDBError(err))
	}
	defer rows.Close()

	out := make([]*model.Member, 0, limit)
	for rows.Next() {
		m, scanErr := scanMember(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan member: %w", scanErr)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateContactState sets the member's contact state and returns the updated row.
func (r *MemberRepo) UpdateContactState(
	ctx context.Context,
	tenantID, id string,
	state model.ContactState,
) (*model.Member, error) {
	if !state.Valid() {
		return nil, apperrors.ValidationField("contact_state", "invalid contact state")
	}
	q := r.sb.Update("members").
		Set("contact_state", string(state)).
		Set("updated_at", r.timeProvider.Now().UTC()).
		Where(sq.Eq{"tenant_id": tenantID, "id": id}).
		Suffix("RETURNING " + strings.Join(memberColumns, ", "))

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build member update: %w", err)
	}
	m, err := scanMember(r.DB.QueryRowContext(ctx, sqlStr, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update member contact state: %w", apperrors.MapDBError(err))
	}
	return m, nil
}

// TouchLastContacted advances last_contacted_at; it never moves it backwards.
func (r *MemberRepo) TouchLastContacted(ctx context.Context, id string, at time.Time) error {
	q := r.sb.Update("members").
		Set("last_contacted_at", sq.Expr("GREATEST(COALESCE(last_contacted_at, ?), ?)", at.UTC(), at.UTC())).
		Set("updated_at", r.timeProvider.Now().UTC()).
		Where(sq.Eq{"id": id})

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build member touch: %w", err)
	}
	res, err := r.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("touch member: %w", apperrors.MapDBError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type memberRow struct {
	ID              string
	TenantID        string
	Name            string
	Email           sql.NullString
	SlackUserID     sql.NullString
	ContactState    string
	LastContactedAt sql.NullTime
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (r *memberRow) toDomain() *model.Member {
	m := &model.Member{
		ID:           r.ID,
		TenantID:     r.TenantID,
		Name:         r.Name,
		ContactState: model.ContactState(r.ContactState),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.Email.Valid {
		v := r.Email.String
		m.Email = &v
	}
	if r.SlackUserID.Valid {
		v := r.SlackUserID.String
		m.SlackUserID = &v
	}
	if r.LastContactedAt.Valid {
		t := r.LastContactedAt.Time
		m.LastContactedAt = &t
	}
	return m
}

func scanMember(s rowScanner) (*model.Member, error) {
	var row memberRow
	if err := s.Scan(
		&row.ID, &row.TenantID, &row.Name, &row.Email, &row.SlackUserID,
		&row.ContactState, &row.LastContactedAt, &row.CreatedAt, &row.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}
