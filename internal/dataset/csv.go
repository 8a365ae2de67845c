// Package dataset loads pressure records from tabular exports, databases and live
// instrument streams.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var errNoSamples = errors.New("no pressure samples found")

// CSVOptions describes the layout of a tabular pressure export
type CSVOptions struct {
	// SkipRows is the number of header rows before the first sample
	SkipRows int
	// Column is the zero-based column holding pressure
	Column int
	// Comma is the field delimiter
	Comma rune
}

// RBROptions returns the layout of an RBR logger pressure export: two header rows
// followed by one comma-separated pressure value per row.
func RBROptions() CSVOptions {
	return CSVOptions{SkipRows: 2, Column: 0, Comma: ','}
}

// LoadCSV reads one pressure column from r
func LoadCSV(r io.Reader, opts CSVOptions) ([]float64, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}

	var pressure []float64
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", row+1, err)
		}
		row++
		if row <= opts.SkipRows {
			continue
		}
		if opts.Column >= len(record) {
			return nil, fmt.Errorf("row %d has %d columns, need column %d", row, len(record), opts.Column)
		}

		field := strings.TrimSpace(record[opts.Column])
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		pressure = append(pressure, v)
	}

	if len(pressure) == 0 {
		return nil, errNoSamples
	}
	return pressure, nil
}

// LoadCSVFile opens filename and reads it with LoadCSV
func LoadCSVFile(filename string, opts CSVOptions) ([]float64, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pressure, err := LoadCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return pressure, nil
}

// WriteCSV writes pressure in the RBR export layout, preceded by the given header rows
func WriteCSV(w io.Writer, header [][]string, pressure []float64) error {
	writer := csv.NewWriter(w)
	for _, h := range header {
		if err := writer.Write(h); err != nil {
			return err
		}
	}
	for _, v := range pressure {
		if err := writer.Write([]string{strconv.FormatFloat(v, 'f', 4, 64)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
