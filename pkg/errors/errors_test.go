package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeForbidden, status: http.StatusForbidden},
		{code: CodeNotFound, status: http.StatusNotFound},
		{code: CodeConflict, status: http.StatusConflict, detailsOK: true},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, detailsOK: true},
		{code: CodeInternal, status: http.StatusInternalServerError, retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, retryable: true, detailsOK: true},
		{code: CodeRecalculationTimeout, status: http.StatusGatewayTimeout, retryable: true, detailsOK: true},
		{code: CodeInvalidCombination, status: http.StatusUnprocessableEntity, detailsOK: true},
		{code: CodeRemoteUnavailable, status: http.StatusServiceUnavailable, retryable: true, detailsOK: true},
		{code: CodeInvalidTransition, status: http.StatusConflict, detailsOK: true},
		{code: CodeBlockedStatus, status: http.StatusLocked, detailsOK: true},
		{code: CodeDuplicateOrder, status: http.StatusOK, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage == "" {
			t.Fatalf("code %s has no public message", tt.code)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := Newf(CodeValidation, "missing %s", "width")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing width" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "width"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeRemoteUnavailable, cause, "catalog call")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Code() != CodeRemoteUnavailable {
		t.Fatalf("unexpected code %s", wrapped.Code())
	}
}

func TestCodeOfFollowsChain(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeBlockedStatus, "supplier controlled"))
	if got := CodeOf(err); got != CodeBlockedStatus {
		t.Fatalf("expected blocked status, got %s", got)
	}
	if !IsCode(err, CodeBlockedStatus) {
		t.Fatalf("IsCode should match wrapped code")
	}
	if got := CodeOf(stdErrors.New("plain")); got != CodeInternal {
		t.Fatalf("expected internal for untyped error, got %s", got)
	}
	if IsCode(nil, CodeInternal) {
		t.Fatalf("nil error should not match any code")
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := New(CodeForbidden, "no entry")
	if got := As(err); got == nil || got.Code() != CodeForbidden {
		t.Fatalf("As failed to return typed error")
	}
	if As(nil) != nil {
		t.Fatalf("As(nil) should return nil")
	}
}

func TestDiagnoseCollectsChain(t *testing.T) {
	err := Wrap(CodeInternal, stdErrors.New("disk full"), "persist order")
	d := Diagnose(err)
	if d.Code != CodeInternal {
		t.Fatalf("expected internal code, got %s", d.Code)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %d", len(d.Chain))
	}
	if d.PG != nil {
		t.Fatalf("no postgres info expected")
	}
	if Diagnose(nil).Message != "" {
		t.Fatalf("expected empty diagnosis for nil")
	}
}

func TestDiagnoseReadsPostgresErrors(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "orders_number_key", TableName: "orders"}
	d := Diagnose(fmt.Errorf("insert: %w", pgErr))
	if d.PG == nil || d.PG.SQLState != "23505" || d.PG.Constraint != "orders_number_key" {
		t.Fatalf("unexpected pg info %+v", d.PG)
	}
	fields := d.Fields()
	if fields["pg_table"] != "orders" {
		t.Fatalf("expected pg_table field, got %v", fields)
	}
	if _, ok := fields["error_code"]; ok {
		t.Fatalf("untyped error should not carry a code")
	}

	d = Diagnose(&pq.Error{Code: "23503", Table: "invoices"})
	if d.PG == nil || d.PG.SQLState != "23503" || d.PG.Table != "invoices" {
		t.Fatalf("unexpected pq info %+v", d.PG)
	}
}

func TestFromDB(t *testing.T) {
	if FromDB(nil, "op") != nil {
		t.Fatalf("nil in, nil out")
	}

	typed := New(CodeNotFound, "gone")
	if FromDB(typed, "op") != error(typed) {
		t.Fatalf("typed errors should pass through")
	}

	tests := []struct {
		err  error
		want Code
	}{
		{err: &pgconn.PgError{Code: "23505"}, want: CodeConflict},
		{err: &pgconn.PgError{Code: "23503"}, want: CodeValidation},
		{err: &pq.Error{Code: "23514"}, want: CodeValidation},
		{err: &pgconn.PgError{Code: "40001"}, want: CodeDependency},
		{err: stdErrors.New("connection reset"), want: CodeDependency},
	}
	for _, tt := range tests {
		if got := CodeOf(FromDB(tt.err, "create order")); got != tt.want {
			t.Errorf("FromDB(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
