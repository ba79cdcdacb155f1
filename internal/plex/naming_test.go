package plex

import (
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSeasonDir(t *testing.T) {
	t.Parallel()

	got, err := FormatSeasonDir("Show Title", 3)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("Show Title", "season_3"), got)

	got, err = FormatSeasonDir("  Fate/strange Fake ", 1)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("Fate-strange Fake", "season_1"), got)

	for _, title := range []string{"", "   ", ".", ".."} {
		_, err := FormatSeasonDir(title, 1)
		assert.True(t, errors.Is(err, ErrInvalidInput), "title %q", title)
	}

	_, err = FormatSeasonDir("Show", -1)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestFormatFlatPath(t *testing.T) {
	t.Parallel()

	got, err := FormatFlatPath("/downloads/movies/Spirited Away (2001).mkv")
	require.NoError(t, err)
	assert.Equal(t, "Spirited Away (2001).mkv", got)

	_, err = FormatFlatPath("")
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"Show Title", "Show Title"},
		{"AC/DC", "AC-DC"},
		{`back\slash`, "back-slash"},
		{"tab\there", "tabhere"},
		{"  padded  ", "padded"},
		{"Re:Zero", "Re:Zero"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), tt.in)
	}
}
