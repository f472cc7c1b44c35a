package sources

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"statedash/internal/config"
	apierrors "statedash/internal/errors"
)

// binaryExtensions are spreadsheet formats excelize cannot open
var binaryExtensions = map[string]bool{
	".xls":     true,
	".xlsb":    true,
	".ods":     true,
	".numbers": true,
}

// FileReader turns uploaded or local files into CSV text
type FileReader struct {
	maxBytes int64
	logger   *slog.Logger
}

// NewFileReader creates a file reader from the dataset configuration
func NewFileReader(cfg config.DatasetConfig, logger *slog.Logger) *FileReader {
	return &FileReader{
		maxBytes: cfg.MaxBytes,
		logger:   logger.With(slog.String("component", "file_reader")),
	}
}

// MaxBytes returns the size limit applied to files
func (fr *FileReader) MaxBytes() int64 {
	return fr.maxBytes
}

// Decode returns the CSV text held in data. name is only used for its extension.
func (fr *FileReader) Decode(name string, data []byte) (string, error) {
	if fr.maxBytes > 0 && int64(len(data)) > fr.maxBytes {
		return "", ErrTooLarge
	}

	ext := strings.ToLower(filepath.Ext(name))
	switch {
	case ext == ".xlsx" || ext == ".xlsm":
		return fr.decodeWorkbook(name, data)
	case binaryExtensions[ext]:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFile, name)
	default:
		return string(stripBOM(data)), nil
	}
}

// ReadFile reads a file from disk and decodes it
func (fr *FileReader) ReadFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", apierrors.NewNotFoundError(fmt.Sprintf("file %s", path))
		}
		return "", apierrors.NewStorageError("failed to stat file", err).WithContext("path", path)
	}
	if info.IsDir() {
		return "", apierrors.NewAppValidationError(fmt.Sprintf("%s is a directory", path))
	}
	if fr.maxBytes > 0 && info.Size() > fr.maxBytes {
		return "", ErrTooLarge
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", apierrors.NewStorageError("failed to read file", err).WithContext("path", path)
	}

	fr.logger.DebugContext(ctx, "file read",
		slog.String("path", path),
		slog.Int("bytes", len(data)),
	)

	return fr.Decode(filepath.Base(path), data)
}

// decodeWorkbook flattens the first sheet of a workbook into comma separated lines
func (fr *FileReader) decodeWorkbook(name string, data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", apierrors.NewParsingError("failed to open workbook", err).WithContext("file", name)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", apierrors.NewParsingError("workbook has no sheets", nil).WithContext("file", name)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return "", apierrors.NewParsingError("failed to read sheet", err).
			WithContext("file", name).
			WithContext("sheet", sheets[0])
	}

	var sb strings.Builder
	for _, row := range rows {
		sb.WriteString(strings.Join(row, ","))
		sb.WriteByte('\n')
	}

	fr.logger.Debug("workbook decoded",
		slog.String("file", name),
		slog.String("sheet", sheets[0]),
		slog.Int("rows", len(rows)),
	)

	return sb.String(), nil
}
