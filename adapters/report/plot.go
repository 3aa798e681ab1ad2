package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"loadanalysis/domain/core"
	"loadanalysis/domain/run"
	"loadanalysis/internal/errors"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// PlotPath appends .png unless path already ends in .png, .pdf or .svg
func PlotPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".pdf", ".svg":
		return path
	}
	return path + ".png"
}

// Plot renders a dot plot of every trimmed (timestamp, delta) pair and
// returns the file written.
func Plot(result *run.Result, title, path string) (string, error) {
	timestamps, deltas := result.Points()
	if len(timestamps) != len(deltas) {
		return "", core.NewMalformedInputError("mismatch in creating dot pairs", result.RunID.String())
	}
	if len(timestamps) == 0 {
		return "", errors.InvalidInput("nothing to plot")
	}

	points := make(plotter.XYs, len(timestamps))
	for i := range timestamps {
		points[i].X = timestamps[i]
		points[i].Y = deltas[i]
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Timestamps"
	p.Y.Label.Text = "Trimmed Deltas"

	scatter, err := plotter.NewScatter(points)
	if err != nil {
		return "", errors.Wrap(err, "failed to build scatter")
	}
	scatter.GlyphStyle.Color = color.RGBA{R: 255, A: 255}
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(scatter)

	path = PlotPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", errors.IOError(fmt.Sprintf("cannot create directory for %s", path), err)
	}
	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return "", errors.IOError(fmt.Sprintf("cannot save graph %s", path), err)
	}
	return path, nil
}
