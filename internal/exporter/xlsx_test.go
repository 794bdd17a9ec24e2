package exporter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "fishstat/internal/errors"
	"fishstat/pkg/contracts/domain"
)

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "fishstat_capture.xlsx")

	long := &domain.LongTable{
		Identifiers: []string{"Species"},
		Records: []domain.LongRecord{
			{Identifiers: []string{"FCY"}, Year: 2018, Value: 10.5},
			{Identifiers: []string{"FCY"}, Year: 2019, Value: 20},
		},
	}
	aggregates := AggregatesTable([]domain.AggregateRecord{{Group: "FCY", Year: 2018, Value: 10.5, Samples: 1}})

	require.NoError(t, newExporter(t).WriteWorkbook(context.Background(), path, LongTable(long), aggregates))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Long", "Aggregates"}, f.GetSheetList())

	rows, err := f.GetRows("Long")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Species", "Year", "Population"}, rows[0])
	assert.Equal(t, []string{"FCY", "2018", "10.5"}, rows[1])

	rows, err = f.GetRows("Aggregates")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "FCY", rows[1][0])
}

func TestWriteWorkbook_Errors(t *testing.T) {
	err := WriteWorkbook(filepath.Join(t.TempDir(), "x.xlsx"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))
	err = WriteWorkbook(filepath.Join(blocker, "x.xlsx"), Table{Name: "T", Headers: []string{"a"}})
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeIO))
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Sheet3", sheetName("", 2))
	assert.Len(t, sheetName("A very long sheet name exceeding the limit", 0), 31)
}
