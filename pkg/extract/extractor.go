// Package extract 从本地文档文件中提取纯文本，用于构建模型的背景上下文。
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrUnsupported 表示文件类型不在支持范围内。
var ErrUnsupported = fmt.Errorf("unsupported file type")

// Supported 判断文件扩展名是否受支持。
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf", ".xlsx", ".xlsm", ".xltx", ".xltm":
		return true
	}
	return false
}

// ExtractFile 读取文件并按扩展名分派到对应的提取器。
func ExtractFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(content)
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return extractExcel(content)
	default:
		return "", ErrUnsupported
	}
}
