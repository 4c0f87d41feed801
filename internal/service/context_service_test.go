package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"opioid-chat-go/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		for j, val := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, val))
		}
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
}

func TestGroundingContext_LoadsDocuments(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "facts.xlsx"), [][]interface{}{
		{"Naloxone", "https://nida.nih.gov/naloxone"},
	})

	s := NewContextService(config.ContextConfig{Folder: dir, MaxChars: 8000}, nil)
	text, urls := s.GroundingContext(context.Background())

	assert.Contains(t, text, "Naloxone")
	assert.True(t, urls["https://nida.nih.gov/naloxone"])
}

func TestGroundingContext_TruncatesToBudget(t *testing.T) {
	dir := t.TempDir()
	long := make([]interface{}, 0, 1)
	content := ""
	for i := 0; i < 500; i++ {
		content += "opioid education content "
	}
	long = append(long, content)
	writeWorkbook(t, filepath.Join(dir, "big.xlsx"), [][]interface{}{long})

	const budget = 100
	s := NewContextService(config.ContextConfig{Folder: dir, MaxChars: budget}, nil)
	text, _ := s.GroundingContext(context.Background())

	assert.LessOrEqual(t, len([]rune(text)), budget)
}

func TestGroundingContext_MissingFolder(t *testing.T) {
	s := NewContextService(config.ContextConfig{Folder: filepath.Join(t.TempDir(), "nope"), MaxChars: 8000}, nil)
	text, urls := s.GroundingContext(context.Background())

	assert.Empty(t, text)
	assert.Empty(t, urls)
}

func TestGroundingContext_SkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	writeWorkbook(t, filepath.Join(dir, "good.xlsx"), [][]interface{}{{"Methadone basics"}})
	// 坏文件只跳过，不影响其他文件
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.pdf"), []byte("not a pdf"), 0o644))

	s := NewContextService(config.ContextConfig{Folder: dir, MaxChars: 8000}, nil)
	text, _ := s.GroundingContext(context.Background())

	assert.Contains(t, text, "Methadone basics")
}
