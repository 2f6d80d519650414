package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/core"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
	apperrors "github.com/itsAR-VR/Community-Intellect-sub001/internal/errors"
)

const defaultQueueBatch = 100

var outboundColumns = []string{
	"id", "tenant_id", "member_id", "body", "origin", "status",
	"last_error", "slack_ts", "created_at", "sent_at",
}

// OutboundMessageRepo is the outbox of messages addressed to members.
type OutboundMessageRepo struct {
	DB *sql.DB
	sb sq.StatementBuilderType
}

// NewOutboundMessageRepo creates a new OutboundMessageRepo.
func NewOutboundMessageRepo(db *sql.DB) *OutboundMessageRepo {
	return &OutboundMessageRepo{
		DB: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var _ core.OutboundMessageRepository = (*OutboundMessageRepo)(nil)

// Create inserts a message in the given initial status.
func (r *OutboundMessageRepo) Create(
	ctx context.Context,
	req *model.CreateOutboundMessageRequest,
	status model.OutboundStatus,
) (*model.OutboundMessage, error) {
	if req == nil {
		return nil, apperrors.Validation("request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	origin := req.Origin
	if origin == "" {
		origin = model.MessageOriginAuto
	}

	sqlStr, args, err := r.sb.Insert("outbound_messages").
		Columns("tenant_id", "member_id", "body", "origin", "status").
		Values(req.TenantID, req.MemberID, strings.TrimSpace(req.Body), string(origin), string(status)).
		Suffix("RETURNING " + strings.Join(outboundColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build outbound insert: %w", err)
	}
	msg, err := scanOutbound(r.DB.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		return nil, fmt.Errorf("insert outbound message: %w", apperrors.MapDBError(err))
	}
	return msg, nil
}

// ListQueued returns the oldest queued automated messages for a tenant.
func (r *OutboundMessageRepo) ListQueued(ctx context.Context, tenantID string, limit int) ([]*model.OutboundMessage, error) {
	if limit <= 0 {
		limit = defaultQueueBatch
	}
	sqlStr, args, err := r.sb.Select(outboundColumns...).
		From("outbound_messages").
		Where(sq.Eq{
			"tenant_id": tenantID,
			"status":    string(model.OutboundStatusQueued),
			"origin":    string(model.MessageOriginAuto),
		}).
		OrderBy("created_at ASC", "id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build outbound select queued: %w", err)
	}

	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query queued outbound: %w", apperrors.MapDBError(err))
	}
	defer rows.Close()

	out := make([]*model.OutboundMessage, 0, limit)
	for rows.Next() {
		msg, scanErr := scanOutbound(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan outbound message: %w", scanErr)
		}
		out = append(out, msg)
	}
	return out, rows.Err()
}

// Claim moves a queued message to sending; false means someone else claimed it.
func (r *OutboundMessageRepo) Claim(ctx context.Context, id string) (bool, error) {
	sqlStr, args, err := r.sb.Update("outbound_messages").
		Set("status", string(model.OutboundStatusSending)).
		Where(sq.Eq{"id": id, "status": string(model.OutboundStatusQueued)}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build outbound claim: %w", err)
	}
	res, err := r.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return false, fmt.Errorf("claim outbound message: %w", apperrors.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("claim outbound rows affected: %w", err)
	}
	return n == 1, nil
}

// Mark records the delivery result of a sending message.
func (r *OutboundMessageRepo) Mark(ctx context.Context, p model.MarkOutboundParams) error {
	q := r.sb.Update("outbound_messages").
		Set("status", string(p.Status)).
		Set("slack_ts", p.SlackTS).
		Set("last_error", p.Error).
		Where(sq.Eq{"id": p.ID})
	if p.Status == model.OutboundStatusSent {
		q = q.Set("sent_at", p.At.UTC())
	}

	sqlStr, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build outbound mark: %w", err)
	}
	res, err := r.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("mark outbound message: %w", apperrors.MapDBError(err))
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOutboundMessageNotFound
	}
	return nil
}

type outboundRow struct {
	ID        string
	TenantID  string
	MemberID  string
	Body      string
	Origin    string
	Status    string
	LastError sql.NullString
	SlackTS   sql.NullString
	CreatedAt time.Time
	SentAt    sql.NullTime
}

func nullStringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func (r *outboundRow) toDomain() *model.OutboundMessage {
	return &model.OutboundMessage{
		ID:        r.ID,
		TenantID:  r.TenantID,
		MemberID:  r.MemberID,
		Body:      r.Body,
		Origin:    model.MessageOrigin(r.Origin),
		Status:    model.OutboundStatus(r.Status),
		LastError: nullStringPtr(r.LastError),
		SlackTS:   nullStringPtr(r.SlackTS),
		CreatedAt: r.CreatedAt,
		SentAt:    nullTimePtr(r.SentAt),
	}
}

func scanOutbound(s rowScanner) (*model.OutboundMessage, error) {
	var row outboundRow
	if err := s.Scan(
		&row.ID, &row.TenantID, &row.MemberID, &row.Body, &row.Origin, &row.Status,
		&row.LastError, &row.SlackTS, &row.CreatedAt, &row.SentAt,
	); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}
