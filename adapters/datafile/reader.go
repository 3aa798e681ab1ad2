package datafile

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"loadanalysis/domain/core"
	"loadanalysis/domain/series"
	"loadanalysis/internal"
	"loadanalysis/internal/errors"
	"loadanalysis/ports"

	"github.com/xuri/excelize/v2"
)

var _ ports.SeriesReader = (*DataReader)(nil)

// MaxHeaderLines is the number of non-numeric lines a file may carry. More
// than one means the first column is probably out of sync with the second.
const MaxHeaderLines = 1

// File types recognised by extension
const (
	FileTypeText = "text"
	FileTypeCSV  = "csv"
	FileTypeXLSX = "xlsx"
)

// DataReader reads paired (timestamp, delta) files from directories or
// single paths
type DataReader struct {
	logger *internal.Logger
}

// NewDataReader creates a new data reader
func NewDataReader(logger *internal.Logger) *DataReader {
	if logger == nil {
		logger = internal.NopLogger()
	}
	return &DataReader{logger: logger.With("datafile")}
}

// FileType returns the format a path is parsed as
func FileType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FileTypeCSV
	case ".xlsx":
		return FileTypeXLSX
	default:
		return FileTypeText
	}
}

// ReadSeries reads every file under the given paths, in path order and then
// file name order. Files with too many header lines are all collected and
// reported together as a MalformedInputError.
func (r *DataReader) ReadSeries(ctx context.Context, paths ...string) ([]series.Series, error) {
	if len(paths) == 0 {
		return nil, errors.InvalidInput("no data paths given")
	}

	var all []series.Series
	var extraHeaders []string

	for _, path := range paths {
		files, err := r.ListFiles(path)
		if err != nil {
			return nil, err
		}
		r.logger.Debug("all files found under %s: %v", path, files)

		for _, file := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			s, headers, err := r.ReadFile(file)
			if err != nil {
				return nil, err
			}
			if headers > MaxHeaderLines {
				r.logger.Error("%d extra header(s) found in file: %s", headers-MaxHeaderLines, s.ID)
				extraHeaders = append(extraHeaders, s.ID)
			}
			all = append(all, s)
		}
	}

	if len(extraHeaders) > 0 {
		return nil, core.NewMalformedInputError("more than one header line", extraHeaders...)
	}

	return all, nil
}

// ListFiles returns the regular files directly inside path, sorted by name,
// or path itself when it is a file.
func (r *DataReader) ListFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.IOError(fmt.Sprintf("cannot access %s", path), err)
	}
	if !info.IsDir() {
		return []string{filepath.Clean(path)}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.IOError(fmt.Sprintf("cannot list %s", path), err)
	}

	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			files = append(files, filepath.Join(path, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// ReadFile parses one file. It returns the series, keyed by the cleaned path,
// and the number of header-like lines seen.
func (r *DataReader) ReadFile(path string) (series.Series, int, error) {
	id := filepath.Clean(path)

	var rows [][]string
	var err error
	switch FileType(path) {
	case FileTypeXLSX:
		rows, err = readXLSXRows(path)
	case FileTypeCSV:
		rows, err = readDelimitedRows(path, csvRows)
	default:
		rows, err = readDelimitedRows(path, textRows)
	}
	if err != nil {
		return series.Series{}, 0, errors.IOError(fmt.Sprintf("failed to read %s", id), err)
	}

	s, headers := ParseRows(id, rows)
	r.logger.Trace("file: %s -- samples: %d -- header lines: %d", id, s.Len(), headers)
	return s, headers, nil
}

// ParseRows pairs the first two numeric fields of each row. Blank rows are
// skipped; any other row that does not start with two numbers counts as a
// header line.
func ParseRows(id string, rows [][]string) (series.Series, int) {
	s := series.Series{ID: id, Timestamps: []float64{}, Deltas: []float64{}}
	headers := 0

	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		if len(row) < 2 {
			headers++
			continue
		}
		timestamp, err := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		if err != nil {
			headers++
			continue
		}
		delta, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			headers++
			continue
		}
		s.Timestamps = append(s.Timestamps, timestamp)
		s.Deltas = append(s.Deltas, delta)
	}

	return s, headers
}

func isBlank(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func readDelimitedRows(path string, split func(io.Reader) ([][]string, error)) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return split(file)
}

// textRows splits whitespace separated columns
func textRows(in io.Reader) ([][]string, error) {
	var rows [][]string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		rows = append(rows, strings.Fields(scanner.Text()))
	}
	return rows, scanner.Err()
}

func csvRows(in io.Reader) ([][]string, error) {
	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

// readXLSXRows reads the first sheet of a workbook
func readXLSXRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	return f.GetRows(sheets[0])
}
