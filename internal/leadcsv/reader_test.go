package leadcsv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func writeTemp(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestReadFile_UTF8(t *testing.T) {
	path := writeTemp(t, []byte("Name,Email\nAda,ada@example.com\nGrace,grace@example.com\n"))

	table, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Email"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"Ada", "ada@example.com"}, table.Rows[0])
}

func TestReadFile_Latin1Fallback(t *testing.T) {
	src := "Name,City\nRené,Orléans\n"
	encoded, _, err := transform.Bytes(charmap.ISO8859_1.NewEncoder(), []byte(src))
	require.NoError(t, err)
	path := writeTemp(t, encoded)

	table, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "René", table.Rows[0][0])
	assert.Equal(t, "Orléans", table.Rows[0][1])
}

func TestReadFile_UTF16Detected(t *testing.T) {
	src := "Name,Email\nAda,ada@example.com\n"
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	encoded, _, err := transform.Bytes(enc, []byte(src))
	require.NoError(t, err)
	path := writeTemp(t, encoded)

	table, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Email"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "Ada", table.Rows[0][0])
}

func TestReadFile_RaggedRowsPadded(t *testing.T) {
	path := writeTemp(t, []byte("Name,Email,Phone\nAda,ada@example.com\n"))

	table, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, []string{"Ada", "ada@example.com", ""}, table.Rows[0])
}

func TestReadFile_EmptyFile(t *testing.T) {
	path := writeTemp(t, nil)

	_, err := ReadFile(path)
	assert.Error(t, err)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}
