package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// Key (slack_user_id)=(U123) already exists.
	detailKeyRe = regexp.MustCompile(`^Key \(([^)]+)\)=`)
	// Key (id)=(m-1) is still referenced from table "dm_threads".
	detailReferencedRe = regexp.MustCompile(`still referenced from table "?([a-z0-9_]+)"?`)
	// Key (member_id)=(m-1) is not present in table "members".
	detailMissingRe = regexp.MustCompile(`not present in table "?([a-z0-9_]+)"?`)
)

// tableLabels names this schema's tables in client-facing messages.
var tableLabels = map[string]string{
	"members":           "member",
	"dm_threads":        "DM thread",
	"outbound_messages": "outbound message",
	"slack_events":      "Slack event",
	"cron_job_runs":     "cron run",
}

// uniqueSuffixes are the constraint name endings Postgres and our migrations
// use for unique constraints and indexes.
var uniqueSuffixes = []string{"_key", "_unique", "_uniq", "_idx"}

// MapDBError classifies a storage error as an AppError. Errors that already
// carry an AppError and errors it does not recognise are returned unchanged.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(err, ErrCodeTimeout, "request timed out")
	case errors.Is(err, context.Canceled):
		return Wrap(err, ErrCodeCanceled, "request was canceled")
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, pgx.ErrNoRows):
		return Wrap(err, ErrCodeNotFound, "resource not found")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifyPgError(pgErr)
	}
	return err
}

// IsUniqueViolation reports whether err carries a PostgreSQL unique_violation.
func IsUniqueViolation(err error) bool {
	return pgCode(err) == pgerrcode.UniqueViolation
}

// IsUndefinedTable reports whether err carries a PostgreSQL undefined_table
// error, which is how a table surfaces before its migration has been applied.
func IsUndefinedTable(err error) bool {
	return pgCode(err) == pgerrcode.UndefinedTable
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func classifyPgError(pgErr *pgconn.PgError) *AppError {
	out := &AppError{Cause: pgErr}
	switch code := pgErr.Code; {
	case code == pgerrcode.UniqueViolation:
		out.Code = ErrCodeConflict
		out.Message = "a record with this value already exists"
		out.Field = uniqueField(pgErr)
	case code == pgerrcode.ForeignKeyViolation:
		out.Code = ErrCodeForeignKey
		out.Message = foreignKeyMessage(pgErr)
	case code == pgerrcode.NotNullViolation:
		out.Code = ErrCodeValidation
		out.Message = "a required value is missing"
		out.Field = pgErr.ColumnName
	case code == pgerrcode.CheckViolation:
		out.Code = ErrCodeValidation
		out.Message = "a value is not allowed"
		out.Field = pgErr.ColumnName
	case code == pgerrcode.UndefinedTable:
		out.Code = ErrCodeUnavailable
		out.Message = "storage is not migrated"
	case pgerrcode.IsConnectionException(code),
		pgerrcode.IsInsufficientResources(code),
		pgerrcode.IsOperatorIntervention(code):
		out.Code = ErrCodeUnavailable
		out.Message = "database is unavailable"
	default:
		out.Code = ErrCodeInternal
		out.Message = "database error"
	}
	return out
}

// uniqueField names the conflicting column: the server-reported column first,
// then the key list in Detail, then the constraint name when it belongs to a
// known table. Multi-column keys are reported as written in Detail.
func uniqueField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := detailKeyRe.FindStringSubmatch(pgErr.Detail); m != nil {
		return m[1]
	}
	return fieldFromConstraint(pgErr.ConstraintName)
}

// fieldFromConstraint turns "members_slack_user_id_key" into "slack_user_id".
// Constraints on unknown tables are ambiguous and yield "".
func fieldFromConstraint(name string) string {
	for table := range tableLabels {
		rest, ok := strings.CutPrefix(name, table+"_")
		if !ok {
			continue
		}
		for _, suffix := range uniqueSuffixes {
			if field, ok := strings.CutSuffix(rest, suffix); ok && field != "" {
				return field
			}
		}
	}
	return ""
}

func foreignKeyMessage(pgErr *pgconn.PgError) string {
	if m := detailReferencedRe.FindStringSubmatch(pgErr.Detail); m != nil {
		return fmt.Sprintf("still referenced by a %s", tableLabel(m[1]))
	}
	if m := detailMissingRe.FindStringSubmatch(pgErr.Detail); m != nil {
		return fmt.Sprintf("referenced %s does not exist", tableLabel(m[1]))
	}
	if pgErr.TableName != "" {
		return fmt.Sprintf("conflicts with a related %s", tableLabel(pgErr.TableName))
	}
	return "conflicts with related records"
}

func tableLabel(table string) string {
	table = strings.ToLower(strings.TrimSpace(table))
	if label, ok := tableLabels[table]; ok {
		return label
	}
	return strings.ReplaceAll(table, "_", " ")
}
