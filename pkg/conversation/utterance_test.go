package conversation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUtterance(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		limit   int
		want    string
		wantErr error
	}{
		{"Answer", "run a 10k", 0, "run a 10k", nil},
		{"Multiline Habits", "walk daily\n\tswim on fridays", 0, "walk daily\n\tswim on fridays", nil},
		{"Escape Sequence Dropped", "\x1b[1mbold\x1b[0m", 0, "[1mbold[0m", nil},
		{"Nul And Bell Dropped", "ag\x00e 4\x071", 0, "age 41", nil},
		{"Trimmed", "  45+ \r\n", 0, "45+", nil},
		{"Only Whitespace", " \t ", 0, "", nil},
		{"At Default Limit", strings.Repeat("a", DefaultMaxInputSize), 0, strings.Repeat("a", DefaultMaxInputSize), nil},
		{"Over Default Limit", strings.Repeat("a", DefaultMaxInputSize+1), 0, "", ErrInputTooLarge},
		{"Over Custom Limit", "too long", 4, "", ErrInputTooLarge},
		{"Invalid UTF-8", "bad \xff byte", 0, "", ErrInvalidUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := utterance(tt.text, tt.limit)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
