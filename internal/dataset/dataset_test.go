package dataset

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"retail-insights/internal/config"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestDetectKind(t *testing.T) {
	tests := map[string]Kind{
		"data.csv":       KindCSV,
		"data.CSV":       KindCSV,
		"data.txt":       KindCSV,
		"retail.xlsx":    KindXLSX,
		"retail.sqlite3": KindSQLite,
		"retail.db":      KindSQLite,
	}
	for path, want := range tests {
		assert.Equal(t, want, DetectKind(path), path)
	}
}

func TestSourceFromConfig(t *testing.T) {
	src := SourceFromConfig(config.DatasetConfig{Path: "retail.db", Encoding: "latin1", Table: "sales"})

	assert.Equal(t, Source{Path: "retail.db", Kind: KindAuto, Encoding: EncodingLatin1, Table: "sales"}, src)
	assert.Equal(t, "sqlite:retail.db", src.String())
}

func TestReadCSV_UTF8WithBOM(t *testing.T) {
	data := []byte("\xef\xbb\xbfInvoiceNo,Description,Country\n536365,\"MUG, RED\",Eire\n536366,CAFÉ SET,France\n")

	table, err := ReadCSV(context.Background(), data, EncodingAuto)
	require.NoError(t, err)

	assert.Equal(t, []string{"InvoiceNo", "Description", "Country"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "MUG, RED", table.Rows[0][1])
	assert.Equal(t, "CAFÉ SET", table.Rows[1][1])
}

func TestReadCSV_Latin1(t *testing.T) {
	// 0xC9 is É in ISO-8859-1 and invalid on its own in UTF-8.
	data := []byte("InvoiceNo,Description\n1,CAF\xc9\n")

	auto, err := ReadCSV(context.Background(), data, EncodingAuto)
	require.NoError(t, err)
	assert.Equal(t, "CAFÉ", auto.Rows[0][1])

	forced, err := ReadCSV(context.Background(), []byte("a\n\xe9\n"), EncodingLatin1)
	require.NoError(t, err)
	assert.Equal(t, "é", forced.Rows[0][0])
}

func TestReadCSV_RaggedRows(t *testing.T) {
	data := []byte("a,b,c\n1,2\n1,2,3,4\n")

	table, err := ReadCSV(context.Background(), data, EncodingUTF8)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Len(t, table.Rows[0], 2)
	assert.Len(t, table.Rows[1], 4)
}

func TestReadCSV_Empty(t *testing.T) {
	_, err := ReadCSV(context.Background(), nil, EncodingAuto)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestReadCSV_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadCSV(ctx, []byte("a\n1\n"), EncodingAuto)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad_CSVFile(t *testing.T) {
	path := writeFile(t, "retail.csv", []byte("InvoiceNo,Country\n1,UK\n"))

	table, err := Load(context.Background(), Source{Path: path})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"1", "UK"}}, table.Rows)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), Source{Path: filepath.Join(t.TempDir(), "nope.csv")})
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(context.Background(), Source{Path: filepath.Join(t.TempDir(), "nope.db")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_UnknownKind(t *testing.T) {
	_, err := Load(context.Background(), Source{Path: "x.parquet", Kind: Kind("parquet")})
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestLoad_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"InvoiceNo", "Description", "Quantity", "InvoiceDate", "UnitPrice", "Country"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A3", &[]any{"536365", "WHITE METAL LANTERN", 6, time.Date(2010, 12, 1, 8, 26, 0, 0, time.UTC), 3.39, "United Kingdom"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A5", &[]any{"536366", "HAND WARMER", 2, time.Date(2011, 1, 9, 12, 0, 0, 0, time.UTC), 1.85, "France"}))

	path := filepath.Join(t.TempDir(), "retail.xlsx")
	require.NoError(t, f.SaveAs(path))

	table, err := Load(context.Background(), Source{Path: path})
	require.NoError(t, err)

	assert.Equal(t, "InvoiceNo", table.Header[0])
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "6", table.Rows[0][2])
	assert.Equal(t, "2010-12-01 08:26:00", table.Rows[0][3])
	assert.Equal(t, "3.39", table.Rows[0][4])
	assert.Equal(t, "France", table.Rows[1][5])

	_, err = Load(context.Background(), Source{Path: path, Sheet: "Missing"})
	assert.Error(t, err)
}

func TestLoad_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retail.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE transactions (InvoiceNo TEXT, Quantity INTEGER, UnitPrice REAL, CustomerID INTEGER, Country TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO transactions VALUES ('536365', 6, 2.55, NULL, 'United Kingdom'), ('C536379', -1, 27.5, 14527, 'Eire')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	table, err := Load(context.Background(), Source{Path: path})
	require.NoError(t, err)

	assert.Equal(t, []string{"InvoiceNo", "Quantity", "UnitPrice", "CustomerID", "Country"}, table.Header)
	assert.Equal(t, [][]string{
		{"536365", "6", "2.55", "", "United Kingdom"},
		{"C536379", "-1", "27.5", "14527", "Eire"},
	}, table.Rows)

	_, err = Load(context.Background(), Source{Path: path, Table: "orders"})
	assert.ErrorContains(t, err, `table "orders" not found`)
}
