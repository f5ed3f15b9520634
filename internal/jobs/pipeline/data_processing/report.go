package data_processing

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/gocarina/gocsv"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
)

func writeCSVReport(path string, rows interface{}) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := gocsv.MarshalFile(rows, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSONReport(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}

// writeReports writes every report into dir and returns name -> path.
func writeReports(dir string, importances []importanceRow, skew []skewRow, mappings map[string]map[string]int) (map[string]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	out := map[string]string{
		FeatureImportanceCSV: filepath.Join(dir, FeatureImportanceCSV),
		FeatureImportancePNG: filepath.Join(dir, FeatureImportancePNG),
		LabelMappingsJSON:    filepath.Join(dir, LabelMappingsJSON),
		SkewnessCSV:          filepath.Join(dir, SkewnessCSV),
	}
	if err := writeCSVReport(out[FeatureImportanceCSV], &importances); err != nil {
		return nil, fmt.Errorf("feature importance csv: %w", err)
	}
	if err := writeCSVReport(out[SkewnessCSV], &skew); err != nil {
		return nil, fmt.Errorf("skewness csv: %w", err)
	}
	if err := writeJSONReport(out[LabelMappingsJSON], mappings); err != nil {
		return nil, fmt.Errorf("label mappings: %w", err)
	}
	if err := drawImportances(out[FeatureImportancePNG], importances); err != nil {
		return nil, fmt.Errorf("feature importance chart: %w", err)
	}
	return out, nil
}

const (
	chartWidth  = 900
	chartRowH   = 28
	chartLabelW = 300
	chartPad    = 20
)

var (
	barSelected = color.NRGBA{R: 0x2b, G: 0x6c, B: 0xb0, A: 0xff}
	barDropped  = color.NRGBA{R: 0xb8, G: 0xc4, B: 0xd0, A: 0xff}
)

func chartFace(size float64) (font.Face, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingNone,
	}), nil
}

// drawImportances renders a horizontal bar chart, selected features in a
// darker colour.
func drawImportances(path string, rows []importanceRow) error {
	face, err := chartFace(14)
	if err != nil {
		return err
	}
	height := 2*chartPad + chartRowH*(len(rows)+1)
	dc := gg.NewContext(chartWidth, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.SetFontFace(face)
	dc.SetRGB(0.1, 0.1, 0.1)
	dc.DrawStringAnchored("Random Forest feature importance", chartWidth/2, chartPad+chartRowH/2, 0.5, 0.5)

	var top float64
	for _, r := range rows {
		if r.Importance > top {
			top = r.Importance
		}
	}
	barSpace := float64(chartWidth - chartLabelW - 2*chartPad - 60)
	for i, r := range rows {
		y := float64(chartPad + chartRowH*(i+1))
		dc.SetRGB(0.1, 0.1, 0.1)
		dc.DrawStringAnchored(r.Feature, chartLabelW, y+chartRowH/2, 1, 0.5)
		w := 0.0
		if top > 0 {
			w = barSpace * r.Importance / top
		}
		if r.Selected {
			dc.SetColor(barSelected)
		} else {
			dc.SetColor(barDropped)
		}
		dc.DrawRectangle(chartLabelW+10, y+4, w, chartRowH-8)
		dc.Fill()
		dc.SetRGB(0.1, 0.1, 0.1)
		dc.DrawStringAnchored(fmt.Sprintf("%.3f", r.Importance), chartLabelW+16+w, y+chartRowH/2, 0, 0.5)
	}
	return dc.SavePNG(path)
}
