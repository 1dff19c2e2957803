// Package observability provides formatted output utilities for the CLI's
// --pretty mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/career-coach/internal/jobs"
	"github.com/jonathan/career-coach/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for pretty mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// wrap breaks text into lines of at most width runes on word boundaries
func wrap(text string, width int) string {
	var lines []string
	var line strings.Builder
	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && len([]rune(line.String()))+1+len([]rune(word)) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteString(" ")
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// writeList writes up to limit items under a heading
func writeList(sb *strings.Builder, heading string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	count := min(len(items), limit)
	for i := 0; i < count; i++ {
		fmt.Fprintf(sb, "  • %s\n", items[i])
	}
	if len(items) > limit {
		fmt.Fprintf(sb, "  ... and %d more\n", len(items)-limit)
	}
	sb.WriteString("\n")
}

func score(v float64) string {
	return fmt.Sprintf("%.0f/100", v)
}

// Print renders any flow output or job search result. It reports false for
// values it has no layout for.
func (p *Printer) Print(v any) bool {
	switch out := v.(type) {
	case *types.MentorGuidanceOutput:
		p.PrintMentorGuidance(out)
	case *types.ResumeAnalysisOutput:
		p.PrintResumeAnalysis(out)
	case *types.InterviewQuestionOutput:
		p.PrintInterviewQuestion(out)
	case *types.FinalReportOutput:
		p.PrintFinalReport(out)
	case *types.RoleCompatibilityOutput:
		p.PrintRoleCompatibility(out)
	case *types.JobTrendsOutput:
		p.PrintJobTrends(out)
	case *jobs.Result:
		p.PrintJobs(out)
	default:
		return false
	}
	return true
}

// PrintMentorGuidance outputs the mentor's answer and suggested next steps.
func (p *Printer) PrintMentorGuidance(out *types.MentorGuidanceOutput) {
	if out == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(wrap(out.Guidance, boxWidth-4))
	sb.WriteString("\n\n")
	writeList(&sb, "Next steps", out.SuggestedActions, maxItemsToShow)

	titles := make([]string, 0, len(out.Resources))
	for _, r := range out.Resources {
		titles = append(titles, r.Title)
	}
	writeList(&sb, "Resources", titles, 3)

	p.printBox("MENTOR GUIDANCE", strings.TrimRight(sb.String(), "\n"))
}

// PrintResumeAnalysis outputs the analysis summary, or the rejection reason
// when the document is not a resume.
func (p *Printer) PrintResumeAnalysis(out *types.ResumeAnalysisOutput) {
	if out == nil {
		return
	}
	if !out.IsResume {
		p.printBox("NOT A RESUME", wrap(out.RejectionReason, boxWidth-4))
		return
	}

	var sb strings.Builder
	if out.ATSScore != nil {
		fmt.Fprintf(&sb, "ATS score: %s\n\n", score(*out.ATSScore))
	}
	sb.WriteString(wrap(out.Summary, boxWidth-4))
	sb.WriteString("\n\n")

	if len(out.ExtractedSkills) > 0 {
		fmt.Fprintf(&sb, "Skills: %s\n\n", truncate(strings.Join(out.ExtractedSkills, ", "), 200))
	}
	writeList(&sb, "Strengths", out.Strengths, maxItemsToShow)
	writeList(&sb, "To improve", out.AreasForImprovement, maxItemsToShow)

	if len(out.SuggestedRoles) > 0 {
		sb.WriteString("Suggested roles:\n")
		count := min(len(out.SuggestedRoles), 3)
		for i := 0; i < count; i++ {
			role := out.SuggestedRoles[i]
			fmt.Fprintf(&sb, "  #%d  %s (%.0f%%)\n", i+1, role.Title, role.Confidence)
		}
	}

	p.printBox("RESUME ANALYSIS", strings.TrimRight(sb.String(), "\n"))
}

// PrintInterviewQuestion outputs the next question
func (p *Printer) PrintInterviewQuestion(out *types.InterviewQuestionOutput) {
	if out == nil {
		return
	}
	title := "INTERVIEW QUESTION"
	if out.QuestionNumber > 0 {
		title = fmt.Sprintf("INTERVIEW QUESTION %d/%d", out.QuestionNumber, types.InterviewLength)
	}
	p.printBox(title, fmt.Sprintf("Topic: %s\n\n%s", out.Topic, wrap(out.Question, boxWidth-4)))
}

// PrintFinalReport outputs the overall score, summary and the lowest
// scoring questions.
func (p *Printer) PrintFinalReport(out *types.FinalReportOutput) {
	if out == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Overall: %s   Status: %s\n\n", score(out.OverallScore), out.Summary.Status)
	sb.WriteString(wrap(out.Summary.Overview, boxWidth-4))
	sb.WriteString("\n\n")
	writeList(&sb, "Strengths", out.Summary.Strengths, maxItemsToShow)
	writeList(&sb, "To improve", out.Summary.AreasForImprovement, maxItemsToShow)

	if len(out.QuestionFeedback) > 0 {
		sb.WriteString("Questions:\n")
		count := min(len(out.QuestionFeedback), maxItemsToShow)
		for i := 0; i < count; i++ {
			q := out.QuestionFeedback[i]
			fmt.Fprintf(&sb, "  %2d. [%3.0f] %s\n", i+1, q.Score, q.Question)
		}
		if len(out.QuestionFeedback) > maxItemsToShow {
			fmt.Fprintf(&sb, "  ... and %d more\n", len(out.QuestionFeedback)-maxItemsToShow)
		}
		sb.WriteString("\n")
	}
	writeList(&sb, "Recommendations", out.Recommendations, 3)

	p.printBox("INTERVIEW REPORT", strings.TrimRight(sb.String(), "\n"))
}

// PrintRoleCompatibility outputs the fit score and skill overlap
func (p *Printer) PrintRoleCompatibility(out *types.RoleCompatibilityOutput) {
	if out == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Compatibility: %s\n\n", score(out.CompatibilityScore))
	sb.WriteString(wrap(out.Verdict, boxWidth-4))
	sb.WriteString("\n\n")
	writeList(&sb, "Matching", out.MatchingSkills, maxItemsToShow)
	writeList(&sb, "Missing", out.MissingSkills, maxItemsToShow)
	writeList(&sb, "Recommendations", out.Recommendations, 3)

	p.printBox("ROLE COMPATIBILITY", strings.TrimRight(sb.String(), "\n"))
}

// PrintJobTrends outputs the market snapshot
func (p *Printer) PrintJobTrends(out *types.JobTrendsOutput) {
	if out == nil {
		return
	}

	var sb strings.Builder
	if len(out.SalaryByExperience) > 0 {
		sb.WriteString("Salary by experience:\n")
		for _, s := range out.SalaryByExperience {
			fmt.Fprintf(&sb, "  %-12s $%.0f\n", s.Level, s.Salary)
		}
		sb.WriteString("\n")
	}
	if len(out.MarketDemand) > 0 {
		sb.WriteString("Demand:\n")
		count := min(len(out.MarketDemand), maxItemsToShow)
		for i := 0; i < count; i++ {
			d := out.MarketDemand[i]
			fmt.Fprintf(&sb, "  %-30s %3.0f\n", truncate(d.Role, 30), d.Demand)
		}
		sb.WriteString("\n")
	}
	writeList(&sb, "Top skills", out.TopSkills, maxItemsToShow)
	sb.WriteString(wrap(out.Insights, boxWidth-4))

	p.printBox("JOB MARKET TRENDS", strings.TrimRight(sb.String(), "\n"))
}

// PrintJobs outputs the first listings of a search
func (p *Printer) PrintJobs(result *jobs.Result) {
	if result == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d matching jobs (showing %d)\n", result.Count, len(result.Listings))
	count := min(len(result.Listings), maxItemsToShow*2)
	for i := 0; i < count; i++ {
		l := result.Listings[i]
		fmt.Fprintf(&sb, "\n%s\n  %s", l.Title, l.Location)
		if l.SalaryMin != nil && l.SalaryMax != nil {
			fmt.Fprintf(&sb, " · $%.0f-$%.0f", *l.SalaryMin, *l.SalaryMax)
		}
		sb.WriteString("\n")
	}

	p.printBox("JOB LISTINGS", strings.TrimRight(sb.String(), "\n"))
}
