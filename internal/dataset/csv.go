package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"retail-insights/internal/models"
)

const ctxCheckEvery = 10000

var utf8BOM = []byte("\xef\xbb\xbf")

func readCSVFile(ctx context.Context, path string, enc Encoding) (models.RawTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.RawTable{}, fmt.Errorf("read file: %w", err)
	}
	return ReadCSV(ctx, data, enc)
}

// ReadCSV parses CSV bytes. With EncodingAuto, input that is not valid UTF-8
// is decoded as ISO-8859-1. Records the CSV reader rejects are skipped and
// counted.
func ReadCSV(ctx context.Context, data []byte, enc Encoding) (models.RawTable, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	var r io.Reader = bytes.NewReader(data)
	if enc == EncodingLatin1 || (enc != EncodingUTF8 && !utf8.Valid(data)) {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}

	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return models.RawTable{}, ErrEmpty
	}
	if err != nil {
		return models.RawTable{}, fmt.Errorf("read header: %w", err)
	}

	table := models.RawTable{Header: header}
	for n := 0; ; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return models.RawTable{}, err
			}
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			table.Skipped++
			continue
		}
		if err != nil {
			return models.RawTable{}, fmt.Errorf("read record: %w", err)
		}
		table.Rows = append(table.Rows, record)
	}
	return table, nil
}
