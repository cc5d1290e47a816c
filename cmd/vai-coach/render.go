package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/vango-go/vai-coach/pkg/coach"
	"github.com/vango-go/vai-coach/pkg/core/live"
	"github.com/vango-go/vai-coach/pkg/core/report"
)

// renderer prints controller snapshots as a running terminal log.
type renderer struct {
	out        io.Writer
	reportFile string
	logger     *slog.Logger

	mu          sync.Mutex
	sessionID   string
	printed     int
	status      live.Status
	mode        coach.Mode
	analyzing   bool
	reported    bool
	interimUser string
	interimAI   string
}

func newRenderer(out io.Writer, reportFile string, logger *slog.Logger) *renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &renderer{out: out, reportFile: reportFile, logger: logger}
}

func (r *renderer) render(s coach.Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.SessionID != r.sessionID {
		r.sessionID = s.SessionID
		r.printed = 0
		r.reported = false
	}
	if len(s.Transcript) < r.printed {
		r.printed = 0
	}

	for _, e := range s.Transcript[r.printed:] {
		fmt.Fprintf(r.out, "%s %s\n", speakerLabel(e.Speaker), e.Text)
	}
	r.printed = len(s.Transcript)

	if s.InterimUser != r.interimUser || s.InterimAI != r.interimAI {
		r.interimUser, r.interimAI = s.InterimUser, s.InterimAI
		r.logger.Debug("interim transcript", "user", s.InterimUser, "ai", s.InterimAI)
	}

	if s.Status != r.status || s.Mode != r.mode {
		r.status, r.mode = s.Status, s.Mode
		fmt.Fprintf(r.out, "[%s] %s\n", strings.ToLower(s.Mode.String()), s.Status)
		if s.Status == live.StatusError && s.Err != nil {
			fmt.Fprintf(r.out, "error: %v\n", s.Err)
		}
	}

	if s.Analyzing && !r.analyzing {
		fmt.Fprintln(r.out, "Analyzing your interview...")
	}
	r.analyzing = s.Analyzing

	if s.Result == nil {
		r.reported = false
	} else if !r.reported {
		r.reported = true
		fmt.Fprint(r.out, renderResult(*s.Result))
		if r.reportFile != "" {
			if err := writeReportFile(r.reportFile, *s.Result); err != nil {
				r.logger.Error("write report file failed", "path", r.reportFile, "error", err)
			} else {
				fmt.Fprintf(r.out, "Report written to %s\n", r.reportFile)
			}
		}
	}
}

func speakerLabel(s live.Speaker) string {
	if s == live.SpeakerUser {
		return "You:"
	}
	return "Coach:"
}

func renderResult(res report.Result) string {
	var b strings.Builder
	b.WriteString("\n==================== REPORT ====================\n")
	b.WriteString(strings.TrimSpace(res.Report))
	b.WriteString("\n\n-------------------- SUMMARY -------------------\n")
	if summary := strings.TrimSpace(res.Summary); summary != "" {
		b.WriteString(summary)
	} else {
		b.WriteString("(no summary)")
	}
	b.WriteString("\n\n----------------- CAREER PATHS -----------------\n")
	b.WriteString(renderCareerGraph(res.CareerPaths))
	b.WriteString("================================================\n")
	return b.String()
}

// renderCareerGraph draws the primary recommendation as an edge from the
// user, with alternatives branching below it.
func renderCareerGraph(paths report.CareerPaths) string {
	if strings.TrimSpace(paths.Primary) == "" {
		return "No career path identified.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "You -> %s\n", paths.Primary)
	for _, alt := range paths.Alternatives {
		fmt.Fprintf(&b, "   \\-> %s\n", alt)
	}
	return b.String()
}

func writeReportFile(path string, res report.Result) error {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(res.Report))
	b.WriteString("\n\n## Summary\n\n")
	b.WriteString(strings.TrimSpace(res.Summary))
	b.WriteString("\n\n## Career Paths\n\n```\n")
	b.WriteString(renderCareerGraph(res.CareerPaths))
	b.WriteString("```\n")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write report %q: %w", path, err)
	}
	return nil
}
