package textenc

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		wantErr bool
	}{
		{name: "empty means utf-8", label: ""},
		{name: "utf-8", label: "UTF-8"},
		{name: "latin1 alias", label: "latin1"},
		{name: "windows-1252", label: "windows-1252"},
		{name: "utf-16le", label: "utf-16le"},
		{name: "unknown", label: "klingon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := Lookup(tt.label)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, enc)
		})
	}
}

func TestWriterReaderRoundTrip(t *testing.T) {
	const text = "Country,Species\nCôte d'Ivoire,Sardinella\n"

	for _, label := range []string{"utf-8", "latin1", "utf-16le"} {
		t.Run(label, func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, label)
			require.NoError(t, err)
			_, err = io.WriteString(w, text)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, err := NewReader(&buf, label)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, text, string(got))
		})
	}
}

func TestLatin1IsSingleByte(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, "latin1")
	require.NoError(t, err)
	_, err = io.WriteString(w, "ô")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, []byte{0xF4}, buf.Bytes())
}

func TestReaderStripsUTF8BOM(t *testing.T) {
	r, err := NewReader(bytes.NewReader([]byte("\xEF\xBB\xBFYear\n")), "")
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "Year\n", string(got))
}
