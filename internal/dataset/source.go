// Package dataset reads retail transaction tables from CSV, XLSX and SQLite
// files into untyped rows for the cleaner.
package dataset

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"retail-insights/internal/config"
	"retail-insights/internal/models"
)

type Kind string

const (
	KindAuto   Kind = ""
	KindCSV    Kind = "csv"
	KindXLSX   Kind = "xlsx"
	KindSQLite Kind = "sqlite"
)

type Encoding string

const (
	EncodingAuto   Encoding = "auto"
	EncodingUTF8   Encoding = "utf8"
	EncodingLatin1 Encoding = "latin1"
)

var (
	ErrEmpty       = errors.New("dataset has no header row")
	ErrUnknownKind = errors.New("unknown dataset kind")
)

// Source describes where the transaction table lives.
type Source struct {
	Path string
	Kind Kind
	// Encoding applies to CSV only.
	Encoding Encoding
	// Sheet selects the XLSX worksheet; the first sheet is used when empty.
	Sheet string
	// Table selects the SQLite table; the first user table is used when empty.
	Table string
}

func SourceFromConfig(cfg config.DatasetConfig) Source {
	return Source{
		Path:     cfg.Path,
		Kind:     Kind(cfg.Kind),
		Encoding: Encoding(cfg.Encoding),
		Sheet:    cfg.Sheet,
		Table:    cfg.Table,
	}
}

func (s Source) String() string {
	return fmt.Sprintf("%s:%s", s.resolvedKind(), s.Path)
}

func (s Source) resolvedKind() Kind {
	if s.Kind != KindAuto {
		return s.Kind
	}
	return DetectKind(s.Path)
}

// DetectKind guesses the source kind from the file extension and falls back
// to CSV.
func DetectKind(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return KindXLSX
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite
	default:
		return KindCSV
	}
}

// Load reads the whole source. The first row is the header; data rows are
// returned as-is, without trimming or type conversion.
func Load(ctx context.Context, src Source) (models.RawTable, error) {
	if src.Path == "" {
		return models.RawTable{}, errors.New("dataset path is empty")
	}

	var (
		table models.RawTable
		err   error
	)
	switch kind := src.resolvedKind(); kind {
	case KindCSV:
		table, err = readCSVFile(ctx, src.Path, src.Encoding)
	case KindXLSX:
		table, err = readXLSX(ctx, src.Path, src.Sheet)
	case KindSQLite:
		table, err = readSQLite(ctx, src.Path, src.Table)
	default:
		return models.RawTable{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return models.RawTable{}, fmt.Errorf("load %s: %w", src, err)
	}
	return table, nil
}
