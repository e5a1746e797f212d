package excel

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"healthinsights/domain/core"
	"healthinsights/internal"
	"healthinsights/internal/errors"

	"github.com/xuri/excelize/v2"
)

// DataReader handles reading CSV and Excel files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	config   ReaderConfig
	logger   *internal.Logger
}

// NewDataReader creates a reader; the file type follows the extension and
// anything that is not .xlsx is read as delimited text.
func NewDataReader(config ReaderConfig, logger *internal.Logger) *DataReader {
	fileType := "csv"
	if strings.EqualFold(filepath.Ext(config.FilePath), ".xlsx") {
		fileType = "xlsx"
	}
	if config.Comma == 0 {
		config.Comma = ','
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &DataReader{
		filePath: config.FilePath,
		fileType: fileType,
		config:   config,
		logger:   logger.With("DataReader"),
	}
}

// ReadData reads the file into untyped rows. An unreadable path is an
// IO_ERROR; content that is not tabular is a PARSE_ERROR.
func (r *DataReader) ReadData() (*ExcelData, error) {
	r.logger.Debug("Starting to read %s file: %s", r.fileType, r.filePath)

	switch r.fileType {
	case "xlsx":
		return r.readExcelData()
	default:
		content, err := os.ReadFile(r.filePath)
		if err != nil {
			return nil, errors.IOError(r.filePath, err)
		}
		return r.ReadCSV(bytes.NewReader(content))
	}
}

// ReadCSV parses delimited text from src.
func (r *DataReader) ReadCSV(src io.Reader) (*ExcelData, error) {
	readStart := time.Now()

	content, err := io.ReadAll(src)
	if err != nil {
		return nil, errors.IOError(r.filePath, err)
	}
	fingerprint := core.NewHash(content)

	bufReader := bufio.NewReader(bytes.NewReader(content))
	// Skip UTF-8 BOM if present
	if bom, err := bufReader.Peek(3); err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		bufReader.Discard(3)
	}

	reader := csv.NewReader(bufReader)
	reader.Comma = r.config.Comma
	reader.FieldsPerRecord = -1 // short rows pad with missing cells

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.ParseError(fmt.Sprintf("%s is not valid delimited data", r.filePath), err)
	}
	r.logger.Debug("CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	data, err := r.processRows(rows)
	if err != nil {
		return nil, err
	}
	data.Fingerprint = fingerprint
	return data, nil
}

// readExcelData reads the configured (or first) worksheet
func (r *DataReader) readExcelData() (*ExcelData, error) {
	startTime := time.Now()

	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.IOError(r.filePath, err)
	}
	defer file.Close()

	fingerprint, err := core.HashReader(file)
	if err != nil {
		return nil, errors.IOError(r.filePath, err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, errors.IOError(r.filePath, err)
	}

	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, errors.ParseError(fmt.Sprintf("%s is not a valid workbook", r.filePath), err)
	}
	defer f.Close()

	sheet := r.config.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.ParseError(fmt.Sprintf("%s has no worksheets", r.filePath), nil)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.ParseError(fmt.Sprintf("failed to read sheet %q", sheet), err)
	}
	r.logger.Debug("Sheet %s read in %.2fms (%d rows)", sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	data, err := r.processRows(rows)
	if err != nil {
		return nil, err
	}
	data.Fingerprint = fingerprint
	return data, nil
}

// processRows converts raw string rows into ExcelData format. Header cells
// are kept verbatim so columns match by exact name.
func (r *DataReader) processRows(rows [][]string) (*ExcelData, error) {
	if len(rows) == 0 || isBlankRow(rows[0]) {
		return nil, errors.ParseError(fmt.Sprintf("%s: %v", r.filePath, core.ErrNoHeader), core.ErrNoHeader)
	}

	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimPrefix(header, "\ufeff")
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) > len(headers) {
			return nil, errors.ParseError(
				fmt.Sprintf("%s: line %d has %d fields, header has %d", r.filePath, i+1, len(row), len(headers)), nil)
		}

		rowData := make(RawRowData, len(headers))
		for j, cell := range row {
			rowData[headers[j]] = cell
		}
		dataRows = append(dataRows, rowData)
	}

	r.logger.Info("%s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &ExcelData{
		Headers: headers,
		Rows:    dataRows,
	}, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
