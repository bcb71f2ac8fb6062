package helpers

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// NullText converts a string pointer to pgtype.Text.
// Nil and blank strings become SQL NULL.
func NullText(s *string) pgtype.Text {
	if s == nil || strings.TrimSpace(*s) == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

// TextPtr converts pgtype.Text back to a string pointer, nil for NULL
func TextPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}
