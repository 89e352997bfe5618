package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bagait/capcheck/internal/model"
)

// Renderer turns a report into human-readable and JSON output.
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a renderer writing the summary to stdout.
func NewRenderer() *Renderer {
	return &Renderer{out: os.Stdout}
}

// RenderSummary prints the human-readable verification report.
func (r *Renderer) RenderSummary(report *model.Report) {
	w := r.out

	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w, "  Verification Report")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  Image:   %s\n", report.ImagePath)
	fmt.Fprintf(w, "  Caption: %q\n", report.Caption)
	fmt.Fprintln(w)

	if len(report.Nouns) == 0 {
		fmt.Fprintln(w, "  No objects mentioned in the caption.")
		fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
		return
	}

	fmt.Fprintf(w, "  Caption objects:  %s\n", joinOrNone(report.Nouns))
	fmt.Fprintf(w, "  Detected objects: %s\n", joinOrNone(report.Labels))
	fmt.Fprintln(w)

	if len(report.Verified) > 0 {
		fmt.Fprintf(w, "  VERIFIED:      %s\n", strings.Join(report.Verified, ", "))
	} else {
		fmt.Fprintln(w, "  No objects from the caption were verified in the image.")
	}

	if len(report.Hallucinated) > 0 {
		fmt.Fprintf(w, "  HALLUCINATED:  %s\n", strings.Join(report.Hallucinated, ", "))
	} else {
		fmt.Fprintln(w, "  No object hallucinations detected.")
	}

	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
}

// RenderJSON writes the report as indented JSON to path.
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}
