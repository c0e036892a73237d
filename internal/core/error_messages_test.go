package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "postgres duplicate key",
			err:         errors.New("ERROR: duplicate key value violates unique constraint \"records_pkey\""),
			wantCode:    "DB001",
			wantMessage: "A record with this ID already exists",
		},
		{
			name:        "sqlite unique constraint",
			err:         errors.New("UNIQUE constraint failed: records.id"),
			wantCode:    "DB001",
			wantMessage: "A record with this ID already exists",
		},
		{
			name:        "connection refused",
			err:         errors.New("dial tcp 127.0.0.1:5432: connection refused"),
			wantCode:    "DB003",
			wantMessage: "Unable to reach the database",
		},
		{
			name:        "sqlite busy",
			err:         errors.New("database is locked"),
			wantCode:    "DB005",
			wantMessage: "Database was busy with conflicting operations",
		},
		{
			name:        "wrapped not found",
			err:         fmt.Errorf("update 7: %w", ErrNotFound),
			wantCode:    "REC001",
			wantMessage: "The record no longer exists",
		},
		{
			name:        "archive unsupported",
			err:         ErrArchiveUnsupported,
			wantCode:    "REC002",
			wantMessage: "This table cannot archive records",
		},
		{
			name:        "unknown table",
			err:         fmt.Errorf("%w: payroll", ErrUnknownTable),
			wantCode:    "ACC004",
			wantMessage: "Unknown table",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("DUPLICATE KEY value"),
			wantCode:    "DB001",
			wantMessage: "A record with this ID already exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestMapMessage_Empty(t *testing.T) {
	if got := MapMessage(""); got != (UserMessage{}) {
		t.Errorf("MapMessage(\"\") = %+v, want zero value", got)
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(ErrNotFound)
	want := "The record no longer exists (Code: REC001). Reload the table"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("duplicate key"), true},
		{errors.New("rate limit exceeded"), true},
		{errors.New("segfault in module xyz"), false},
	}

	for _, tt := range tests {
		if got := IsUserFacing(tt.err); got != tt.want {
			t.Errorf("IsUserFacing(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
