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

var dmThreadColumns = []string{
	"id", "tenant_id", "member_id", "channel_id",
	"last_message_at", "member_replied_at", "conversation_closed_at", "updated_at",
}

// DMThreadRepo stores the DM thread mapped to each member.
type DMThreadRepo struct {
	DB           *sql.DB
	sb           sq.StatementBuilderType
	timeProvider TimeProvider
}

// NewDMThreadRepo creates a new DMThreadRepo.
func NewDMThreadRepo(db *sql.DB, tp TimeProvider) *DMThreadRepo {
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &DMThreadRepo{
		DB:           db,
		sb:           sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
		timeProvider: tp,
	}
}

var _ core.DMThreadRepository = (*DMThreadRepo)(nil)

// GetByMemberID returns the member's thread or ErrDMThreadNotFound.
func (r *DMThreadRepo) GetByMemberID(ctx context.Context, tenantID, memberID string) (*model.DMThread, error) {
	sqlStr, args, err := r.sb.Select(dmThreadColumns...).
		From("dm_threads").
		Where(sq.Eq{"tenant_id": tenantID, "member_id": memberID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build dm thread select: %w", err)
	}
	th, err := scanDMThread(r.DB.QueryRowContext(ctx, sqlStr, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDMThreadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get dm thread: %w", apperrors.MapDBError(err))
	}
	return th, nil
}

// RecordOutbound creates the member's thread if needed and advances last_message_at.
// A new outbound message reopens the conversation, so replied/closed markers are cleared.
func (r *DMThreadRepo) RecordOutbound(ctx context.Context, req model.UpsertDMThreadRequest) (*model.DMThread, error) {
	if strings.TrimSpace(req.MemberID) == "" || strings.TrimSpace(req.ChannelID) == "" {
		return nil, apperrors.Validation("member_id and channel_id are required")
	}
	now := r.timeProvider.Now().UTC()
	at := req.LastMessageAt.UTC()

	sqlStr, args, err := r.sb.Insert("dm_threads").
		Columns("tenant_id", "member_id", "channel_id", "last_message_at", "updated_at").
		Values(req.TenantID, req.MemberID, req.ChannelID, at, now).
		Suffix(`ON CONFLICT (member_id) DO UPDATE SET
			channel_id = EXCLUDED.channel_id,
			last_message_at = GREATEST(COALESCE(dm_threads.last_message_at, EXCLUDED.last_message_at), EXCLUDED.last_message_at),
			member_replied_at = NULL,
			conversation_closed_at = NULL,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + strings.Join(dmThreadColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build dm thread upsert: %w", err)
	}
	th, err := scanDMThread(r.DB.QueryRowContext(ctx, sqlStr, args...))
	if err != nil {
		return nil, fmt.Errorf("record dm thread outbound: %w", apperrors.MapDBError(err))
	}
	return th, nil
}

type dmThreadRow struct {
	ID                   string
	TenantID             string
	MemberID             string
	ChannelID            string
	LastMessageAt        sql.NullTime
	MemberRepliedAt      sql.NullTime
	ConversationClosedAt sql.NullTime
	UpdatedAt            time.Time
}

func nullTimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

func (r *dmThreadRow) toDomain() *model.DMThread {
	return &model.DMThread{
		ID:                   r.ID,
		TenantID:             r.TenantID,
		MemberID:             r.MemberID,
		ChannelID:            r.ChannelID,
		LastMessageAt:        nullTimePtr(r.LastMessageAt),
		MemberRepliedAt:      nullTimePtr(r.MemberRepliedAt),
		ConversationClosedAt: nullTimePtr(r.ConversationClosedAt),
		UpdatedAt:            r.UpdatedAt,
	}
}

func scanDMThread(s rowScanner) (*model.DMThread, error) {
	var row dmThreadRow
	if err := s.Scan(
		&row.ID, &row.TenantID, &row.MemberID, &row.ChannelID,
		&row.LastMessageAt, &row.MemberRepliedAt, &row.ConversationClosedAt, &row.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// RecordReply stamps member_replied_at on the thread for a DM channel.
// A reply older than the thread's last outbound message is ignored: that
// outbound reopened the conversation and cleared the marker, so a redelivered
// reply must not restore it. It returns false when no thread is mapped to the
// channel or the reply is stale.
func (r *DMThreadRepo) RecordReply(ctx context.Context, channelID string, at time.Time) (bool, error) {
	at = at.UTC()
	sqlStr, args, err := r.sb.Update("dm_threads").
		Set("member_replied_at", sq.Expr("GREATEST(COALESCE(member_replied_at, ?), ?)", at, at)).
		Set("updated_at", r.timeProvider.Now().UTC()).
		Where(sq.Eq{"channel_id": channelID}).
		Where(sq.Or{sq.Eq{"last_message_at": nil}, sq.Lt{"last_message_at": at}}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build dm thread reply: %w", err)
	}
	res, err := r.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return false, fmt.Errorf("record dm thread reply: %w", apperrors.MapDBError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("record dm thread reply rows affected: %w", err)
	}
	return n > 0, nil
}
