package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"loadanalysis/domain/run"
	"loadanalysis/internal/errors"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// TextReport renders a run result as markdown
type TextReport struct {
	result *run.Result
}

// NewTextReport creates a report for result
func NewTextReport(result *run.Result) *TextReport {
	return &TextReport{result: result}
}

// Markdown returns the report body
func (t *TextReport) Markdown() string {
	r := t.result
	var b strings.Builder

	fmt.Fprintf(&b, "## Load analysis %s\n\n", r.RunID)
	fmt.Fprintf(&b, "Analysis - (original) data: %s = %v, std = %v, samples = %d\n\n",
		r.Center, r.Original.Center(r.Center), r.Original.Std, r.Original.Count)

	if c := r.Cleaning; c != nil {
		fmt.Fprintf(&b, "Cleaned up outliers in the data that are not within +/- (%v) standard deviation(s): boundary [%v, %v]\n\n",
			c.Level, c.Lower, c.Upper)
		if c.Clean != nil {
			fmt.Fprintf(&b, "Analysis - (clean) data: %s = %v, std = %v, samples = %d\n\n",
				c.Center, c.Clean.Center(c.Center), c.Clean.Std, c.Clean.Count)
		} else {
			b.WriteString("Analysis - (clean) data: no data\n\n")
		}
		if len(c.Dropped) > 0 {
			fmt.Fprintf(&b, "Files emptied by cleaning: %s\n\n", strings.Join(c.Dropped, ", "))
		}
	}

	fmt.Fprintf(&b, "Timestamp threshold set at: %v by file: %s\n\n", r.Threshold, r.ThresholdOwner)

	b.WriteString("| File | Samples | Mean | Std |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, fa := range r.Aggregate.PerSeries {
		fmt.Fprintf(&b, "| %s | %d | %v | %v |\n", fa.FileID, fa.Samples, fa.Mean, fa.Std)
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Mean of all delta standard deviations found (from all file data): %v\n", r.Aggregate.MeanOfStds)
	return b.String()
}

// HTML renders the markdown report as a standalone page
func (t *TextReport) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: fmt.Sprintf("Load analysis %s", t.result.RunID),
	})
	return markdown.ToHTML([]byte(t.Markdown()), p, renderer)
}

// WriteFile appends the report to path, creating parent directories. Paths
// ending in .html get the rendered page instead of markdown.
func (t *TextReport) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.IOError(fmt.Sprintf("cannot create directory for %s", path), err)
	}

	content := []byte("\n" + t.Markdown())
	if strings.EqualFold(filepath.Ext(path), ".html") {
		content = t.HTML()
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.IOError(fmt.Sprintf("cannot open %s", path), err)
	}
	defer f.Close()

	if _, err := f.Write(content); err != nil {
		return errors.IOError(fmt.Sprintf("cannot write %s", path), err)
	}
	return nil
}
