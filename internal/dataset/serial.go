package dataset

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	serial "github.com/tarm/goserial"
)

// SerialConfig names the port a live CTD or pressure logger streams on
type SerialConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
	// Column is the zero-based field of each line holding pressure
	Column int `yaml:"column"`
}

// OpenSerial opens the instrument's serial port
func OpenSerial(c SerialConfig) (io.ReadWriteCloser, error) {
	if c.Baud == 0 {
		c.Baud = 9600
	}
	sc := &serial.Config{Name: c.Device, Baud: c.Baud}
	rwc, err := serial.OpenPort(sc)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", c.Device, err)
	}
	return rwc, nil
}

// ReadStream reads line-oriented samples from r until max samples are collected, r reaches EOF
// or ctx is cancelled. Fields may be separated by commas or whitespace. Lines that don't parse
// (instrument banners, prompts) are skipped. A max of zero reads until EOF. When r is an
// io.Closer it is closed on cancellation so a silent port cannot block the read.
func ReadStream(ctx context.Context, r io.Reader, column, max int) ([]float64, error) {
	if c, ok := r.(io.Closer); ok {
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				c.Close()
			case <-done:
			}
		}()
	}

	scanner := bufio.NewScanner(r)
	var pressure []float64

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return pressure, err
		}

		fields := strings.FieldsFunc(scanner.Text(), func(c rune) bool {
			return c == ',' || c == ' ' || c == '\t' || c == '\r'
		})
		if column >= len(fields) {
			continue
		}
		v, err := strconv.ParseFloat(fields[column], 64)
		if err != nil {
			continue
		}

		pressure = append(pressure, v)
		if max > 0 && len(pressure) >= max {
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return pressure, err
	}
	if err := scanner.Err(); err != nil {
		return pressure, err
	}

	if len(pressure) == 0 {
		return nil, errNoSamples
	}
	return pressure, nil
}
