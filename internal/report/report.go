// Package report turns a similarity score into a verdict and prints it.
package report

import (
	"fmt"
	"io"
)

// Verdict is the outcome of comparing a score against a threshold.
type Verdict struct {
	ChangeDetected bool    `json:"change_detected"`
	Score          float64 `json:"score"`
	Threshold      float64 `json:"threshold"`
}

// Decide reports a change when score falls below threshold.
func Decide(score, threshold float64) Verdict {
	return Verdict{
		ChangeDetected: score < threshold,
		Score:          score,
		Threshold:      threshold,
	}
}

// Reporter writes the fixed-format comparison report.
type Reporter struct {
	w io.Writer
}

func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

func (r *Reporter) Directory(dir string) {
	fmt.Fprintf(r.w, "📂 Using upload directory: %s\n", dir)
}

func (r *Reporter) InsufficientInput() {
	fmt.Fprintln(r.w, "📸 Not enough images for comparison.")
}

func (r *Reporter) ExtractionFailed() {
	fmt.Fprintln(r.w, "❌ Could not extract descriptors.")
}

// Comparison prints both filenames, the score to three decimals, the threshold
// to two decimals and the verdict line.
func (r *Reporter) Comparison(newest, previous string, v Verdict) {
	fmt.Fprintln(r.w, "\n🔍 Image Comparison Result:")
	fmt.Fprintf(r.w, "📸 %s ↔ %s : Similarity = %.3f\n", newest, previous, v.Score)
	fmt.Fprintf(r.w, "⚙️ Threshold: %.2f\n", v.Threshold)

	if v.ChangeDetected {
		fmt.Fprintln(r.w, "⚠️ Significant change detected between the two images!")
	} else {
		fmt.Fprintln(r.w, "✅ No significant differences detected.")
	}
}

func (r *Reporter) Done() {
	fmt.Fprintln(r.w, "🚀 Script execution complete. Exiting now...")
}
