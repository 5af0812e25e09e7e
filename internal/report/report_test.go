package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/lehigh-university-libraries/stitcher/internal/compositor"
	"github.com/lehigh-university-libraries/stitcher/internal/edits"
)

func sampleReport(t *testing.T) Report {
	t.Helper()
	items := []compositor.Item{
		{ID: "a", Name: "a.png", Image: image.NewRGBA(image.Rect(0, 0, 100, 50))},
		{ID: "b", Name: "b.png", Image: image.NewRGBA(image.Rect(0, 0, 200, 80)), Edit: edits.State{Rotation: 180}},
	}
	layout := compositor.Layout{
		Direction: compositor.Horizontal,
		Border:    compositor.Border{Kind: compositor.BorderSeparator, Thickness: 10, Color: color.Black},
	}
	res, err := compositor.Render(items, layout)
	if err != nil {
		t.Fatal(err)
	}
	return New(res, layout)
}

func TestNewReport(t *testing.T) {
	r := sampleReport(t)
	if r.Width != 310 || r.Height != 80 {
		t.Errorf("Expected 310x80, got %dx%d", r.Width, r.Height)
	}
	if r.Border != "separator" || r.Thickness != 10 {
		t.Errorf("Unexpected border %s/%d", r.Border, r.Thickness)
	}
	if len(r.Rows) != 2 || r.Rows[1].X != 110 || r.Rows[1].Rotation != 180 {
		t.Errorf("Unexpected rows %+v", r.Rows)
	}
}

func TestWriteFormats(t *testing.T) {
	r := sampleReport(t)

	tests := []struct {
		format Format
		check  func(t *testing.T, data []byte)
	}{
		{FormatText, func(t *testing.T, data []byte) {
			if !strings.Contains(string(data), "Composite 310x80") || !strings.Contains(string(data), "b.png at (110,0)") {
				t.Errorf("Unexpected text report:\n%s", data)
			}
		}},
		{FormatJSON, func(t *testing.T, data []byte) {
			var got Report
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatal(err)
			}
			if len(got.Rows) != 2 || got.Rows[0].Name != "a.png" {
				t.Errorf("Unexpected JSON rows %+v", got.Rows)
			}
		}},
		{FormatCSV, func(t *testing.T, data []byte) {
			records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
			if err != nil {
				t.Fatal(err)
			}
			if len(records) != 3 || records[2][2] != "b.png" || records[2][3] != "110" {
				t.Errorf("Unexpected CSV %v", records)
			}
		}},
		{FormatYAML, func(t *testing.T, data []byte) {
			var got Report
			if err := yaml.Unmarshal(data, &got); err != nil {
				t.Fatal(err)
			}
			if got.Width != 310 || len(got.Rows) != 2 {
				t.Errorf("Unexpected YAML report %+v", got)
			}
		}},
		{FormatParquet, func(t *testing.T, data []byte) {
			pf, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
			if err != nil {
				t.Fatal(err)
			}
			if pf.NumRows() != 2 {
				t.Fatalf("Expected 2 rows, got %d", pf.NumRows())
			}
			reader := parquet.NewGenericReader[Row](pf)
			defer reader.Close()
			rows := make([]Row, 2)
			n, _ := reader.Read(rows)
			if n != 2 || rows[1].Name != "b.png" || rows[1].Width != 200 {
				t.Errorf("Unexpected parquet rows %+v", rows[:n])
			}
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, tt.format, r); err != nil {
				t.Fatal(err)
			}
			tt.check(t, buf.Bytes())
		})
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(""); err != nil || f != FormatText {
		t.Errorf("Expected text default, got %v %v", f, err)
	}
	if f, err := ParseFormat("parquet"); err != nil || f != FormatParquet {
		t.Errorf("Expected parquet, got %v %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Errorf("Expected error for xml")
	}
}
