package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xuri/excelize/v2"
)

func writeTestWorkbook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Drug"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Risk"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Fentanyl"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "Very high"))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
}

func TestExtractFile_Excel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "drugs.xlsx")
	writeTestWorkbook(t, path)

	text, err := ExtractFile(path)
	require.NoError(t, err)
	assert.Contains(t, text, "Drug | Risk")
	assert.Contains(t, text, "Fentanyl | Very high")
}

func TestExtractFile_Unsupported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text"), 0o644))

	_, err := ExtractFile(path)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestExtractFile_Missing(t *testing.T) {
	_, err := ExtractFile(filepath.Join(t.TempDir(), "absent.pdf"))
	assert.Error(t, err)
}

func TestExtractFile_CorruptPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.pdf")
	require.NoError(t, os.WriteFile(path, []byte("not really a pdf"), 0o644))

	_, err := ExtractFile(path)
	assert.Error(t, err)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.pdf"))
	assert.True(t, Supported("A.XLSX"))
	assert.False(t, Supported("a.docx"))
	assert.False(t, Supported("a"))
}
