package authz

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateContent(t *testing.T) {
	validator := NewValidator(nil)

	tests := []struct {
		name    string
		content string
		want    string
		wantErr error
	}{
		{name: "plain content", content: "hello there", want: "hello there"},
		{name: "trims whitespace", content: "  hi  ", want: "hi"},
		{name: "empty", content: "", wantErr: ErrEmptyContent},
		{name: "whitespace only", content: "   \n\t ", wantErr: ErrEmptyContent},
		{name: "at the cap", content: strings.Repeat("a", MaxContentLength), want: strings.Repeat("a", MaxContentLength)},
		{name: "over the cap", content: strings.Repeat("a", MaxContentLength+1), wantErr: ErrContentTooLong},
		{name: "multibyte under the cap", content: strings.Repeat("é", 600), want: strings.Repeat("é", 600)},
		{name: "multibyte at the cap", content: strings.Repeat("日", MaxContentLength), want: strings.Repeat("日", MaxContentLength)},
		{name: "multibyte over the cap", content: strings.Repeat("é", MaxContentLength+1), wantErr: ErrContentTooLong},
		{name: "padding does not dodge the cap", content: "  " + strings.Repeat("a", MaxContentLength) + "  ", want: strings.Repeat("a", MaxContentLength)},
		{name: "escapes markup", content: "<script>alert(1)</script>", want: "&lt;script&gt;alert(1)&lt;/script&gt;"},
		{name: "strips control characters", content: "a\x00b\x07c", want: "abc"},
		{name: "keeps newlines and tabs", content: "line one\nline\ttwo", want: "line one\nline\ttwo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validator.ValidateContent(tt.content)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateContentCustomSanitizer(t *testing.T) {
	validator := NewValidator(SanitizerFunc(strings.ToUpper))

	got, err := validator.ValidateContent("shout")
	require.NoError(t, err)
	assert.Equal(t, "SHOUT", got)
}

func TestAuthorizeEdit(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		authorID    int
		requesterID int
		createdAt   time.Time
		wantErr     error
	}{
		{name: "author inside window", authorID: 1, requesterID: 1, createdAt: now.Add(-time.Hour)},
		{name: "author just inside window", authorID: 1, requesterID: 1, createdAt: now.Add(-EditWindow)},
		{name: "author past window", authorID: 1, requesterID: 1, createdAt: now.Add(-EditWindow - time.Second), wantErr: ErrTooOld},
		{name: "not the author", authorID: 1, requesterID: 2, createdAt: now.Add(-time.Minute), wantErr: ErrNotOwner},
		{name: "ownership checked before age", authorID: 1, requesterID: 2, createdAt: now.Add(-48 * time.Hour), wantErr: ErrNotOwner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := AuthorizeEdit(tt.authorID, tt.createdAt, tt.requesterID, now)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestAuthorizeDelete(t *testing.T) {
	require.NoError(t, AuthorizeDelete(1, 1))
	require.ErrorIs(t, AuthorizeDelete(1, 2), ErrNotOwner)
}
