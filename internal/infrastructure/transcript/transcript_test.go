package transcript

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/anki-inject/internal/domain/cardstream"
	"github.com/ersonp/anki-inject/internal/domain/entities"
)

func readAll(t *testing.T, r *Reader) []string {
	t.Helper()
	var got []string
	for {
		fragment, err := r.Next(context.Background())
		if err == io.EOF {
			return got
		}
		require.NoError(t, err)
		got = append(got, string(fragment))
	}
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		fragments []string
	}{
		{name: "empty transcript", fragments: nil},
		{name: "single fragment", fragments: []string{`{"cards":[]}`}},
		{name: "empty fragments kept", fragments: []string{"", `{"ca`, "", `rds"`}},
		{name: "escapes and html", fragments: []string{`"front":"a \"q\"`, "<b>x</b>\n", "café"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf)
			require.NoError(t, err)
			for _, f := range tt.fragments {
				require.NoError(t, w.RecordFragment([]byte(f)))
			}
			assert.Equal(t, len(tt.fragments), w.Count())
			require.NoError(t, w.Close())

			r, err := NewReader(&buf)
			require.NoError(t, err)
			defer r.Close()

			got := readAll(t, r)
			if len(tt.fragments) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.fragments, got)
		})
	}
}

func TestFileReplay(t *testing.T) {
	doc := `{"cards": [{"front":"Q1","back":"A1"},{"front":"Q2","back":"A2"}]}`
	path := filepath.Join(t.TempDir(), "session.zst")

	w, err := Create(path)
	require.NoError(t, err)
	for _, f := range cardstream.SplitEvery(doc, 6) {
		require.NoError(t, w.RecordFragment([]byte(f)))
	}
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	r, err := Open(path)
	require.NoError(t, err)

	cards, err := cardstream.Drain(context.Background(), r)

	require.NoError(t, err)
	assert.Equal(t, []entities.Card{{Front: "Q1", Back: "A1"}, {Front: "Q2", Back: "A2"}}, cards)
	_, err = r.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestWriter_Errors(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf)
	require.NoError(t, err)

	assert.ErrorIs(t, w.RecordFragment([]byte{0xff, 0xfe}), ErrInvalidUTF8)

	require.NoError(t, w.Close())
	assert.ErrorIs(t, w.RecordFragment([]byte("x")), os.ErrClosed)
}

func TestReader_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "missing.zst"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "opening transcript")
	})

	t.Run("cancelled context", func(t *testing.T) {
		var buf bytes.Buffer
		w, err := NewWriter(&buf)
		require.NoError(t, err)
		require.NoError(t, w.RecordFragment([]byte("x")))
		require.NoError(t, w.Close())

		r, err := NewReader(&buf)
		require.NoError(t, err)
		defer r.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = r.Next(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("not a transcript", func(t *testing.T) {
		r, err := NewReader(bytes.NewReader([]byte("plain text")))
		require.NoError(t, err)
		defer r.Close()

		_, err = r.Next(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading transcript")
	})
}
