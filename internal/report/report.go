// Package report writes the placement of every entry in a finished
// composite as text, JSON, CSV, YAML or Parquet.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/stitcher/internal/compositor"
)

type Format string

const (
	FormatText    Format = "text"
	FormatJSON    Format = "json"
	FormatCSV     Format = "csv"
	FormatYAML    Format = "yaml"
	FormatParquet Format = "parquet"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case FormatText, FormatJSON, FormatCSV, FormatYAML, FormatParquet:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	case FormatYAML:
		return "application/yaml"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Row is one placed entry.
type Row struct {
	Index    int    `json:"index" yaml:"index" parquet:"index"`
	ID       string `json:"id" yaml:"id" parquet:"id"`
	Name     string `json:"name" yaml:"name" parquet:"name"`
	X        int    `json:"x" yaml:"x" parquet:"x"`
	Y        int    `json:"y" yaml:"y" parquet:"y"`
	Width    int    `json:"width" yaml:"width" parquet:"width"`
	Height   int    `json:"height" yaml:"height" parquet:"height"`
	Rotation int    `json:"rotation" yaml:"rotation" parquet:"rotation"`
}

type Report struct {
	Width     int       `json:"width" yaml:"width"`
	Height    int       `json:"height" yaml:"height"`
	Direction string    `json:"direction" yaml:"direction"`
	Border    string    `json:"border" yaml:"border"`
	Thickness int       `json:"thickness,omitempty" yaml:"thickness,omitempty"`
	Created   time.Time `json:"created" yaml:"created"`
	Rows      []Row     `json:"placements" yaml:"placements"`
}

func New(res *compositor.Result, layout compositor.Layout) Report {
	r := Report{
		Width:     res.Width(),
		Height:    res.Height(),
		Direction: layout.Direction.String(),
		Border:    layout.Border.Kind.String(),
		Created:   time.Now().UTC(),
		Rows:      make([]Row, 0, len(res.Placements)),
	}
	if layout.Border.Kind != compositor.BorderNone {
		r.Thickness = layout.Border.Thickness
	}
	for i, p := range res.Placements {
		r.Rows = append(r.Rows, Row{
			Index:    i,
			ID:       p.ID,
			Name:     p.Name,
			X:        p.X,
			Y:        p.Y,
			Width:    p.Width,
			Height:   p.Height,
			Rotation: p.Rotation,
		})
	}
	return r
}

func Write(w io.Writer, format Format, r Report) error {
	switch format {
	case FormatText:
		return writeText(w, r)
	case FormatJSON:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(r)
	case FormatCSV:
		return writeCSV(w, r)
	case FormatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(r); err != nil {
			return err
		}
		return encoder.Close()
	case FormatParquet:
		return writeParquet(w, r)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeText(w io.Writer, r Report) error {
	if _, err := fmt.Fprintf(w, "Composite %dx%d (%s, border %s)\n", r.Width, r.Height, r.Direction, r.Border); err != nil {
		return err
	}
	for _, row := range r.Rows {
		_, err := fmt.Fprintf(w, "[%d] %s at (%d,%d) %dx%d rotated %d\n",
			row.Index+1, row.Name, row.X, row.Y, row.Width, row.Height, row.Rotation)
		if err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(w io.Writer, r Report) error {
	writer := csv.NewWriter(w)

	header := []string{"Index", "ID", "Name", "X", "Y", "Width", "Height", "Rotation"}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range r.Rows {
		record := []string{
			strconv.Itoa(row.Index),
			row.ID,
			row.Name,
			strconv.Itoa(row.X),
			strconv.Itoa(row.Y),
			strconv.Itoa(row.Width),
			strconv.Itoa(row.Height),
			strconv.Itoa(row.Rotation),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeParquet(w io.Writer, r Report) error {
	writer := parquet.NewGenericWriter[Row](w)
	if _, err := writer.Write(r.Rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}
