package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// PGInfo carries the Postgres diagnostics found in an error chain.
type PGInfo struct {
	SQLState   string `json:"sqlstate"`
	Constraint string `json:"constraint,omitempty"`
	Table      string `json:"table,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// Diagnosis is the log-side view of an error: everything the client never
// sees.
type Diagnosis struct {
	Message   string
	Code      Code
	Retryable bool
	Chain     []string
	PG        *PGInfo
}

// Diagnose walks err and collects its typed code, wrap chain and any
// Postgres diagnostics.
func Diagnose(err error) Diagnosis {
	if err == nil {
		return Diagnosis{}
	}
	d := Diagnosis{Message: err.Error(), Code: CodeOf(err), PG: postgresInfo(err)}
	if d.Code != "" {
		d.Retryable = MetadataFor(d.Code).Retryable
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T", e))
	}
	return d
}

// Fields flattens the diagnosis into structured log fields.
func (d Diagnosis) Fields() map[string]any {
	fields := map[string]any{
		"error_detail": d.Message,
		"error_chain":  d.Chain,
	}
	if d.Code != "" {
		fields["error_code"] = string(d.Code)
		fields["retryable"] = d.Retryable
	}
	if d.PG != nil {
		fields["pg_sqlstate"] = d.PG.SQLState
		if d.PG.Constraint != "" {
			fields["pg_constraint"] = d.PG.Constraint
		}
		if d.PG.Table != "" {
			fields["pg_table"] = d.PG.Table
		}
		if d.PG.Detail != "" {
			fields["pg_detail"] = d.PG.Detail
		}
	}
	return fields
}

// gorm runs on pgx; goose migrations run on lib/pq.
func postgresInfo(err error) *PGInfo {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return &PGInfo{
			SQLState:   pgxErr.Code,
			Constraint: pgxErr.ConstraintName,
			Table:      pgxErr.TableName,
			Detail:     pgxErr.Detail,
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return &PGInfo{
			SQLState:   string(pqErr.Code),
			Constraint: pqErr.Constraint,
			Table:      pqErr.Table,
			Detail:     pqErr.Detail,
		}
	}
	return nil
}

// FromDB maps a storage failure onto an API code by SQLSTATE. Errors that
// are already typed pass through.
func FromDB(err error, op string) error {
	if err == nil {
		return nil
	}
	if As(err) != nil {
		return err
	}
	info := postgresInfo(err)
	if info == nil {
		return Wrap(CodeDependency, err, op)
	}
	switch info.SQLState {
	case "23505":
		return Wrap(CodeConflict, err, op+": duplicate").
			WithDetails(map[string]any{"constraint": info.Constraint})
	case "23503", "23514", "22P02":
		return Wrap(CodeValidation, err, op+": rejected by database")
	default:
		return Wrap(CodeDependency, err, op)
	}
}
