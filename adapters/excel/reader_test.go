package excel

import (
	"os"
	"path/filepath"
	"testing"

	"healthinsights/domain/core"
	"healthinsights/domain/dataset"
	"healthinsights/internal"
	"healthinsights/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quietLogger = internal.NewLogger(internal.LogLevelError)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func readerFor(path string) *DataReader {
	config := DefaultReaderConfig()
	config.FilePath = path
	return NewDataReader(config, quietLogger)
}

func TestReadData_CSV(t *testing.T) {
	path := writeFile(t, "data.csv", "\ufeffGender,Medical Condition,Billing Amount\n"+
		"Male,Diabetes,100.5\n"+
		"Female,\"Heart, Disease\",\n"+
		"Male,Asthma\n")

	data, err := readerFor(path).ReadData()
	require.NoError(t, err)

	assert.Equal(t, []string{"Gender", "Medical Condition", "Billing Amount"}, data.Headers)
	require.Len(t, data.Rows, 3)
	assert.Equal(t, "Heart, Disease", data.Rows[1]["Medical Condition"])
	assert.Equal(t, "", data.Rows[1]["Billing Amount"])

	_, present := data.Rows[2]["Billing Amount"]
	assert.False(t, present, "short rows leave trailing cells unset")
	assert.False(t, data.Fingerprint.IsEmpty())
}

func TestReadData_HeaderOnly(t *testing.T) {
	path := writeFile(t, "empty.csv", "Gender,Age\n")

	data, err := readerFor(path).ReadData()
	require.NoError(t, err)
	assert.Empty(t, data.Rows)
	assert.True(t, data.HasColumn("Age"))
}

func TestReadData_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		code string
	}{
		{"missing file", filepath.Join(t.TempDir(), "nope.csv"), errors.CodeIOError},
		{"directory", t.TempDir(), errors.CodeIOError},
		{"empty file", writeFile(t, "blank.csv", ""), errors.CodeParseError},
		{"bare quote", writeFile(t, "quote.csv", "a,b\n1,\"x\"y\n"), errors.CodeParseError},
		{"too many fields", writeFile(t, "wide.csv", "a,b\n1,2,3\n"), errors.CodeParseError},
		{"not a workbook", writeFile(t, "fake.xlsx", "a,b\n1,2\n"), errors.CodeParseError},
		{"missing workbook", filepath.Join(t.TempDir(), "nope.xlsx"), errors.CodeIOError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readerFor(tt.path).ReadData()
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err), err.Error())
		})
	}
}

func TestReadData_EmptyFileIsNoHeader(t *testing.T) {
	_, err := readerFor(writeFile(t, "blank.csv", "")).ReadData()
	assert.ErrorIs(t, err, core.ErrNoHeader)
}

func TestMissingColumns(t *testing.T) {
	data := &ExcelData{Headers: []string{"Gender", "Age"}}
	assert.Equal(t, []string{"Hospital"}, data.MissingColumns([]string{"Gender", "Hospital", "Age"}))
	assert.False(t, data.HasColumn("gender"), "header match is case-sensitive")
}

func TestWorkbookExporter_RoundTrip(t *testing.T) {
	admitted, _ := core.ParseDateKey("2020-01-01")
	discharged, _ := core.ParseDateKey("2020-01-05")
	records := []dataset.Record{
		dataset.NewRecord(dataset.Encounter{
			Gender: "Male", Condition: "Diabetes", Hospital: "Mercy",
			Age: core.Some(61.0), BillingAmount: core.Some(250.75),
			AdmissionDate: core.Some(admitted), DischargeDate: core.Some(discharged),
		}),
		dataset.NewRecord(dataset.Encounter{
			Gender: "Female", Condition: "Asthma", Hospital: "General",
			AdmissionDate: core.Some(admitted),
		}),
	}
	ds := dataset.New(records, dataset.Meta{Source: "mem"})

	path := filepath.Join(t.TempDir(), "export.xlsx")
	out, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, NewWorkbookExporter().Write(out, ds, []SummaryRow{{Label: "Total entries", Value: 2}}))
	require.NoError(t, out.Close())

	data, err := readerFor(path).ReadData()
	require.NoError(t, err)

	require.Len(t, data.Rows, 2)
	assert.Equal(t, "Length of Stay", data.Headers[len(data.Headers)-1])
	assert.Equal(t, "4", data.Rows[0]["Length of Stay"])
	assert.Equal(t, "2020-01-05", data.Rows[0]["Discharge Date"])
	assert.Equal(t, "", data.Rows[1]["Age"])
	assert.Equal(t, "", data.Rows[1]["Length of Stay"])
}
