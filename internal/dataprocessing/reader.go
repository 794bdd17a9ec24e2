package dataprocessing

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "fishstat/internal/errors"
	"fishstat/internal/textenc"
	"fishstat/pkg/contracts/domain"
)

// YearColumn is the year header of long-format files
const YearColumn = "Year"

// ReadOptions controls how input tables are read
type ReadOptions struct {
	Encoding  string // Text encoding of CSV input (default: utf-8)
	Sheet     string // XLSX sheet name (default: first sheet)
	Delimiter rune   // CSV field delimiter (default: ',')
}

// DefaultReadOptions returns options for UTF-8, comma separated input
func DefaultReadOptions() *ReadOptions {
	return &ReadOptions{
		Encoding:  textenc.UTF8,
		Delimiter: ',',
	}
}

// ReadWideFile loads a wide-format table, dispatching on the file
// extension. .xlsx files are read with excelize, anything else as CSV.
func ReadWideFile(path string, opts *ReadOptions) (*domain.RawTable, error) {
	if opts == nil {
		opts = DefaultReadOptions()
	}

	var (
		table *domain.RawTable
		err   error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		table, err = readWideXLSX(path, opts)
	default:
		table, err = readWideCSVFile(path, opts)
	}
	if err != nil {
		return nil, err
	}

	table.Source = path
	return table, nil
}

func readWideCSVFile(path string, opts *ReadOptions) (*domain.RawTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewIOError("failed to open input file", path, err)
	}
	defer file.Close()

	return ReadWide(file, opts)
}

// ReadWide loads a wide-format CSV table from r
func ReadWide(r io.Reader, opts *ReadOptions) (*domain.RawTable, error) {
	if opts == nil {
		opts = DefaultReadOptions()
	}

	decoded, err := textenc.NewReader(r, opts.Encoding)
	if err != nil {
		return nil, apperrors.NewConfigError("unsupported input encoding", err).
			WithContext("encoding", opts.Encoding)
	}

	reader := newCSVReader(decoded, opts)

	var (
		rows  [][]string
		lines []int
	)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, record)
		lines = append(lines, line)
	}

	return newRawTable(rows, lines)
}

func readWideXLSX(path string, opts *ReadOptions) (*domain.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewIOError("failed to open workbook", path, err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, apperrors.NewParsingError("workbook has no sheets", nil).WithContext("path", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", sheet), err).
			WithContext("path", path)
	}

	lines := make([]int, len(rows))
	for i := range lines {
		lines[i] = i + 1
	}
	return newRawTable(rows, lines)
}

// newRawTable splits header and rows, skipping blank rows and padding
// short ones to the header width. lines holds the source line of each
// row.
func newRawTable(rows [][]string, lines []int) (*domain.RawTable, error) {
	if len(rows) == 0 {
		return nil, apperrors.NewParsingError("input is empty: no header row", nil)
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.TrimSpace(h)
	}
	if isBlank(header) {
		return nil, apperrors.NewParsingError("input has an empty header row", nil)
	}

	table := &domain.RawTable{
		Header: header,
		Rows:   make([][]string, 0, len(rows)-1),
		Lines:  make([]int, 0, len(rows)-1),
	}

	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		line := lines[i+1]

		if len(row) > len(header) {
			if !isBlank(row[len(header):]) {
				return nil, apperrors.NewParsingError(
					fmt.Sprintf("line %d has %d cells but the header has %d", line, len(row), len(header)), nil).
					WithContext("row", len(table.Rows)+1).
					WithContext("line", line)
			}
			row = row[:len(header)]
		}

		cells := make([]string, len(header))
		copy(cells, row)
		table.Rows = append(table.Rows, cells)
		table.Lines = append(table.Lines, line)
	}

	return table, nil
}

// ReadLongCSV re-imports a long-format CSV written by the exporter.
// Columns before Year are identifiers; the column after it holds values.
func ReadLongCSV(path string, opts *ReadOptions) (*domain.LongTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewIOError("failed to open long-format file", path, err)
	}
	defer file.Close()

	table, err := ReadLong(file, opts)
	if err != nil {
		return nil, err
	}
	table.Source = path
	return table, nil
}

// ReadLong parses a long-format CSV table from r
func ReadLong(r io.Reader, opts *ReadOptions) (*domain.LongTable, error) {
	if opts == nil {
		opts = DefaultReadOptions()
	}

	decoded, err := textenc.NewReader(r, opts.Encoding)
	if err != nil {
		return nil, apperrors.NewConfigError("unsupported input encoding", err).
			WithContext("encoding", opts.Encoding)
	}

	reader := newCSVReader(decoded, opts)
	reader.FieldsPerRecord = 0

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperrors.NewParsingError("input is empty: no header row", nil)
	}
	if err != nil {
		return nil, csvError(err)
	}

	yearIdx := -1
	for i, h := range header {
		if strings.TrimSpace(h) == YearColumn {
			yearIdx = i
			break
		}
	}
	if yearIdx < 0 || yearIdx != len(header)-2 {
		return nil, apperrors.NewParsingError(
			fmt.Sprintf("long-format header must end with %q and a value column", YearColumn), nil).
			WithContext("header", header)
	}

	identifiers := make([]string, yearIdx)
	for i := range identifiers {
		identifiers[i] = strings.TrimSpace(header[i])
	}
	valueColumn := strings.TrimSpace(header[yearIdx+1])

	table := &domain.LongTable{Identifiers: identifiers}
	for row := 1; ; row++ {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}

		year, err := strconv.Atoi(strings.TrimSpace(cells[yearIdx]))
		if err != nil {
			return nil, apperrors.NewParseError(row, YearColumn, cells[yearIdx], err)
		}
		value, err := parseNumber(cells[yearIdx+1])
		if err != nil {
			return nil, apperrors.NewParseError(row, valueColumn, cells[yearIdx+1], err)
		}

		ids := make([]string, yearIdx)
		copy(ids, cells[:yearIdx])
		table.Records = append(table.Records, domain.LongRecord{
			Identifiers: ids,
			Year:        year,
			Value:       value,
		})
	}

	return table, nil
}

func newCSVReader(r io.Reader, opts *ReadOptions) *csv.Reader {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	return reader
}

// csvError converts encoding/csv errors, which carry the file line
func csvError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return apperrors.NewParsingError("malformed CSV", err).
			WithContext("line", parseErr.Line).
			WithContext("column", parseErr.Column)
	}
	return apperrors.NewParsingError("failed to read CSV", err)
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
