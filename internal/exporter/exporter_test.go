package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"charmcli/internal/config"
	"charmcli/internal/files"
	"charmcli/internal/series"
	"charmcli/pkg/contracts/domain"
)

func setupTestEnv(t *testing.T) (*CSVWriter, *config.Paths) {
	t.Helper()
	study := config.DefaultStudy()
	study.OutputRoot = t.TempDir()
	paths := config.NewPaths(study)
	return NewCSVWriter(paths), paths
}

func readAll(t *testing.T, path string) [][]string {
	t.Helper()
	r, err := files.Open(path)
	require.NoError(t, err)
	defer r.Close()
	records, err := csv.NewReader(r).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCSVWriter_WriteCSV(t *testing.T) {
	writer, paths := setupTestEnv(t)

	tests := []struct {
		name     string
		file     string
		options  WriteOptions
		expected [][]string
	}{
		{
			name: "plain table",
			file: "plain.csv",
			options: WriteOptions{
				Headers: []string{"ID", "Value"},
				Records: [][]string{{"01", "1.5"}, {"02", ""}},
			},
			expected: [][]string{{"ID", "Value"}, {"01", "1.5"}, {"02", ""}},
		},
		{
			name: "compressed table",
			file: "nested/compressed.csv.gz",
			options: WriteOptions{
				Headers: []string{"time"},
				Records: [][]string{{"2023-03-01 08:00:00"}},
			},
			expected: [][]string{{"time"}, {"2023-03-01 08:00:00"}},
		},
		{
			name:     "header only",
			file:     "empty.csv",
			options:  WriteOptions{Headers: []string{"a", "b"}},
			expected: [][]string{{"a", "b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, writer.WriteCSV(tt.file, tt.options))
			assert.Equal(t, tt.expected, readAll(t, paths.Stats(tt.file)))
		})
	}
}

func TestCSVWriter_Append(t *testing.T) {
	writer, paths := setupTestEnv(t)

	require.NoError(t, writer.WriteCSV("log.csv", WriteOptions{Headers: []string{"a"}, Records: [][]string{{"1"}}}))
	require.NoError(t, writer.WriteCSV("log.csv", WriteOptions{Headers: []string{"a"}, Records: [][]string{{"2"}}, Append: true}))
	assert.Equal(t, [][]string{{"a"}, {"1"}, {"2"}}, readAll(t, paths.Stats("log.csv")))

	err := writer.WriteCSV("log.csv.gz", WriteOptions{Records: [][]string{{"3"}}, Append: true})
	assert.Error(t, err)
}

func TestCSVWriter_BOM(t *testing.T) {
	writer, paths := setupTestEnv(t)
	require.NoError(t, writer.WriteCSV("bom.csv", WriteOptions{Headers: []string{"x"}, BOMPrefix: true}))

	raw, err := os.ReadFile(paths.Stats("bom.csv"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, raw[:3])
}

func TestCSVWriter_WriteRecords(t *testing.T) {
	writer, _ := setupTestEnv(t)
	path := filepath.Join(t.TempDir(), "CBT.csv")

	rows := []domain.TemperatureSample{{
		Time:    domain.NewTimestamp(time.Date(2023, 3, 1, 8, 0, 0, 0, time.UTC)),
		CBT:     37.1,
		Quality: 4,
		SkinT:   33.2,
	}}
	require.NoError(t, writer.WriteRecords(path, &rows))

	assert.Equal(t, [][]string{
		{"time", "CBT", "qualityT", "SkinT"},
		{"2023-03-01 08:00:00", "37.1", "4", "33.2"},
	}, readAll(t, path))
}

func TestCSVWriter_UpsertTable(t *testing.T) {
	writer, paths := setupTestEnv(t)
	byID := domain.LessID

	first := series.NewTable("ID", "Miss")
	first.Append("02", 1.5)
	first.Append("01", 2.0)
	require.NoError(t, writer.UpsertTable("miss.csv", first, "ID", byID))

	second := series.NewTable("ID", "Miss")
	second.Append("02", 9.0)
	second.Append("03", 0.5)
	require.NoError(t, writer.UpsertTable("miss.csv", second, "ID", byID))

	assert.Equal(t, [][]string{
		{"ID", "Miss"},
		{"01", "2"},
		{"02", "9"},
		{"03", "0.5"},
	}, readAll(t, paths.Stats("miss.csv")))

	assert.Error(t, writer.UpsertTable("miss.csv", second, "Subject", nil))
}

func TestCSVWriter_UpsertRecords(t *testing.T) {
	writer, paths := setupTestEnv(t)

	require.NoError(t, writer.UpsertRecords("acti.csv",
		[]domain.ActiMissRecord{{ID: "10", NoWear: 2.5}}, "ID", domain.LessID))
	require.NoError(t, writer.UpsertRecords("acti.csv",
		[]domain.ActiMissRecord{{ID: "9", NoWear: 0.5}}, "ID", domain.LessID))

	assert.Equal(t, [][]string{
		{"ID", "ActiAC-No-Wear [%]"},
		{"9", "0.5"},
		{"10", "2.5"},
	}, readAll(t, paths.Stats("acti.csv")))
}

func TestStreamWriter(t *testing.T) {
	writer, paths := setupTestEnv(t)

	sw, err := writer.CreateStreamWriter("stream.csv.gz", []string{"time", "AC"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, sw.WriteRecord([]string{"t", strings.Repeat("1", i+1)}))
	}
	assert.Equal(t, 3, sw.Rows())
	require.NoError(t, sw.Close())

	records := readAll(t, paths.Stats("stream.csv.gz"))
	require.Len(t, records, 4)
	assert.Equal(t, []string{"t", "111"}, records[3])
}

func TestWriteWorkbook(t *testing.T) {
	writer, paths := setupTestEnv(t)

	miss := series.NewTable("ID", "Actigraph")
	miss.Append("01", 2.5)
	models := series.NewTable("test", "hour")
	models.Append("ActiAC", "14:05")

	err := writer.WriteWorkbook("summary.xlsx", []Sheet{
		{Name: "Overall_miss", Table: miss},
		{Name: "CR_models_with_a_very_long_sheet_name", Table: models},
	})
	require.NoError(t, err)

	f, err := excelize.OpenFile(paths.Stats("summary.xlsx"))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Overall_miss", "CR_models_with_a_very_long_shee"}, f.GetSheetList())

	id, err := f.GetCellValue("Overall_miss", "A2")
	require.NoError(t, err)
	assert.Equal(t, "01", id)
	v, err := f.GetCellValue("Overall_miss", "B2")
	require.NoError(t, err)
	assert.Equal(t, "2.5", v)

	hour, err := f.GetCellValue("CR_models_with_a_very_long_shee", "B2")
	require.NoError(t, err)
	assert.Equal(t, "14:05", hour)

	assert.Error(t, writer.WriteWorkbook("empty.xlsx", nil))
}
