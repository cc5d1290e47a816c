// Package report turns a finished interview transcript into a career report
// and extracts the summary and career paths from the model's markdown.
package report

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/vango-go/vai-coach/pkg/core"
	"github.com/vango-go/vai-coach/pkg/core/live"
)

const (
	// Separator splits the sidebar summary from the report body.
	Separator = "---SIDEBAR---"

	// FormatFallback replaces the report when the separator is missing.
	FormatFallback = "Sorry, I encountered an error while generating your career path analysis. The format of the response was not as expected. Please try again by starting over."

	// AnalysisFailed is shown when generation itself fails.
	AnalysisFailed = "Sorry, I encountered an error while analyzing your career path. Please try again by starting over."

	alternativesHeading = "**Alternative Paths for Consideration:**"
)

var (
	primaryRe     = regexp.MustCompile(`\*\*Primary Career Direction:\*\*\s*(.*)`)
	alternativeRe = regexp.MustCompile(`(?m)^\s*\d\.\s*([^-]+)`)
)

// Generator produces text from a system instruction and a prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// CareerPaths holds the recommendations pulled out of the report. Primary is
// empty when the report names none.
type CareerPaths struct {
	Primary      string
	Alternatives []string
}

// Result is a parsed analysis.
type Result struct {
	Summary     string
	Report      string
	CareerPaths CareerPaths
}

// FormatTranscript renders entries as "User: ..." / "Coach: ..." paragraphs.
func FormatTranscript(entries []live.TranscriptEntry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		label := "Coach"
		if e.Speaker == live.SpeakerUser {
			label = "User"
		}
		lines = append(lines, label+": "+e.Text)
	}
	return strings.Join(lines, "\n\n")
}

// Analyze generates and parses the report for transcript. On a generation
// error the returned Result carries AnalysisFailed as its report alongside
// the error. Output without a usable report section still returns the parsed
// Result, with a format_mismatch error.
func Analyze(ctx context.Context, gen Generator, transcript []live.TranscriptEntry) (Result, error) {
	if gen == nil {
		return Result{Report: AnalysisFailed}, errors.New("report: no generator configured")
	}
	raw, err := gen.Generate(ctx, AnalysisInstruction, FormatTranscript(transcript))
	if err != nil {
		return Result{Report: AnalysisFailed}, err
	}
	res := Parse(raw)
	if res.Report == FormatFallback {
		return res, core.NewFormatMismatchError("report is missing the " + Separator + " section")
	}
	return res, nil
}

// Parse splits raw model output into summary and report and extracts career
// paths from the report. It never fails; malformed input yields the
// FormatFallback report.
func Parse(raw string) Result {
	parts := strings.Split(raw, Separator)
	res := Result{Summary: strings.TrimSpace(parts[0])}
	if len(parts) > 1 {
		res.Report = strings.TrimSpace(parts[1])
	}
	if res.Report == "" {
		res.Report = FormatFallback
	}
	res.CareerPaths = extractCareerPaths(res.Report)
	return res
}

func extractCareerPaths(report string) CareerPaths {
	var paths CareerPaths
	if m := primaryRe.FindStringSubmatch(report); m != nil {
		paths.Primary = strings.TrimSpace(m[1])
	}

	idx := strings.Index(report, alternativesHeading)
	if idx < 0 {
		return paths
	}
	section := strings.TrimLeft(report[idx+len(alternativesHeading):], " \t\r\n")
	// The section runs to the next heading marker.
	if end := strings.IndexByte(section, '#'); end >= 0 {
		section = section[:end]
	}
	for _, m := range alternativeRe.FindAllStringSubmatch(section, -1) {
		if alt := strings.TrimSpace(m[1]); alt != "" {
			paths.Alternatives = append(paths.Alternatives, alt)
		}
	}
	return paths
}
