package dataprocessing

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "fishstat/internal/errors"
	"fishstat/internal/shared/testutil"
	"fishstat/internal/textenc"
)

func TestReadWideFile_CSV(t *testing.T) {
	path := testutil.WriteFile(t, "capture.csv", testutil.CaptureCSV)

	table, err := ReadWideFile(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, table.Source)
	assert.Equal(t, testutil.CaptureHeader, table.Header)
	require.Equal(t, 3, table.NumRows())
	assert.Equal(t, "Iceland", table.Rows[1][0])
	assert.Equal(t, "NA", table.Rows[1][8])
}

func TestReadWide_PadsShortRowsAndSkipsBlankLines(t *testing.T) {
	input := "\ufeffSpecies,1950,1951\nFCY,1\n,,\nANE,2,3\n"

	table, err := ReadWide(strings.NewReader(input), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Species", "1950", "1951"}, table.Header, "BOM stripped")
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"FCY", "1", ""}, table.Rows[0])
	assert.Equal(t, []string{"ANE", "2", "3"}, table.Rows[1])
	assert.Equal(t, []int{2, 4}, table.Lines)
}

func TestReadWide_Latin1(t *testing.T) {
	var buf bytes.Buffer
	w, err := textenc.NewWriter(&buf, "latin1")
	require.NoError(t, err)
	_, err = w.Write([]byte("Country,1950\nCôte d'Ivoire,12\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	table, err := ReadWide(&buf, &ReadOptions{Encoding: "latin1"})
	require.NoError(t, err)
	assert.Equal(t, "Côte d'Ivoire", table.Rows[0][0])
}

func TestReadWide_Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		opts     *ReadOptions
		wantType apperrors.ErrorType
	}{
		{name: "empty input", input: "", wantType: apperrors.ErrTypeParsing},
		{name: "blank header", input: ",,\n1,2,3\n", wantType: apperrors.ErrTypeParsing},
		{name: "extra cells", input: "a,1950\nx,1,2\n", wantType: apperrors.ErrTypeParsing},
		{name: "unknown encoding", input: "a\n", opts: &ReadOptions{Encoding: "klingon"}, wantType: apperrors.ErrTypeConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadWide(strings.NewReader(tt.input), tt.opts)
			require.Error(t, err)
			assert.Equal(t, tt.wantType, apperrors.TypeOf(err), "got %v", err)
		})
	}
}

func TestReadWideFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.csv")

	_, err := ReadWideFile(path, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIO))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, path, appErr.Context["path"])
}

func TestReadWideFile_XLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.xlsx")

	f := excelize.NewFile()
	sheet := "Capture"
	_, err := f.NewSheet(sheet)
	require.NoError(t, err)
	require.NoError(t, f.DeleteSheet("Sheet1"))
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Species", "[2019]", "S", "[2020]"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"FCY", 12.5, "E", "."}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"ANE", 3}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := ReadWideFile(path, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Species", "[2019]", "S", "[2020]"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"FCY", "12.5", "E", "."}, table.Rows[0])
	assert.Equal(t, []string{"ANE", "3", "", ""}, table.Rows[1])
	assert.Equal(t, []int{2, 3}, table.Lines)

	_, err = ReadWideFile(path, &ReadOptions{Sheet: "Nope"})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing))
}

func TestReadLong(t *testing.T) {
	input := "Country,Species,Year,Population\nNorway,FCY,2018,10\nChile,ANE,2019,0.5\n"

	table, err := ReadLong(strings.NewReader(input), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Country", "Species"}, table.Identifiers)
	require.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"Chile", "ANE"}, table.Records[1].Identifiers)
	assert.Equal(t, 2019, table.Records[1].Year)
	assert.Equal(t, 0.5, table.Records[1].Value)
}

func TestReadLong_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "no year column", input: "Species,Population\nFCY,1\n"},
		{name: "year not second to last", input: "Year,Species,Population\n2018,FCY,1\n"},
		{name: "bad year", input: "Species,Year,Population\nFCY,20x8,1\n"},
		{name: "bad value", input: "Species,Year,Population\nFCY,2018,lots\n"},
		{name: "ragged row", input: "Species,Year,Population\nFCY,2018\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadLong(strings.NewReader(tt.input), nil)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeParsing), "got %v", err)
		})
	}
}
