package flows

import (
	"context"
	"regexp"
	"strings"

	"github.com/jonathan/career-coach/internal/llm"
	"github.com/jonathan/career-coach/internal/types"
)

// MentorGuidance answers a free-form career question, optionally grounded in
// the user's resume.
func (s *Service) MentorGuidance(ctx context.Context, in *types.MentorGuidanceInput) (*types.MentorGuidanceOutput, error) {
	if err := s.validateInput(MentorGuidance, in); err != nil {
		return nil, err
	}
	return generate[types.MentorGuidanceOutput](ctx, s, MentorGuidance, in, nil)
}

type resumeAnalysisView struct {
	ResumeText string
}

// ResumeAnalysis decides whether the uploaded document is a resume and, if
// it is, analyzes it. A non-resume yields IsResume=false with only
// RejectionReason set; a model reply mixing the two shapes is a
// GenerationError.
func (s *Service) ResumeAnalysis(ctx context.Context, in *types.ResumeAnalysisInput) (*types.ResumeAnalysisOutput, error) {
	if err := s.validateInput(ResumeAnalysis, in); err != nil {
		return nil, err
	}

	media, text, err := loadDocument(ResumeAnalysis, "resumeDataUri", in.ResumeDataURI)
	if err != nil {
		return nil, err
	}

	// The output schema rejects a non-resume record that carries any
	// analysis field, so a rejection reaching here holds only the reason.
	return generate[types.ResumeAnalysisOutput](ctx, s, ResumeAnalysis, resumeAnalysisView{ResumeText: text}, media)
}

type interviewQuestionView struct {
	types.InterviewQuestionInput
	TotalQuestions int
}

// InterviewQuestion generates the next mock interview question. The prompt
// asks the model not to repeat earlier questions; repeats are logged but
// still returned.
func (s *Service) InterviewQuestion(ctx context.Context, in *types.InterviewQuestionInput) (*types.InterviewQuestionOutput, error) {
	if err := s.validateInput(InterviewQuestion, in); err != nil {
		return nil, err
	}

	view := interviewQuestionView{InterviewQuestionInput: *in, TotalQuestions: types.InterviewLength}
	out, err := generate[types.InterviewQuestionOutput](ctx, s, InterviewQuestion, view, nil)
	if err != nil {
		return nil, err
	}

	if out.QuestionNumber == 0 {
		out.QuestionNumber = len(in.History) + 1
	}

	if i := repeatedQuestion(out.Question, in.History); i >= 0 {
		s.logger.WarnContext(ctx, "interview question repeats history",
			"flow", InterviewQuestion,
			"history_index", i,
			"topic", out.Topic)
	}
	return out, nil
}

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

func normalizeQuestion(q string) string {
	return strings.TrimSpace(nonWord.ReplaceAllString(strings.ToLower(q), " "))
}

// repeatedQuestion returns the index of the first history entry asking the
// same question, or -1.
func repeatedQuestion(question string, history []types.QAPair) int {
	target := normalizeQuestion(question)
	if target == "" {
		return -1
	}
	for i, h := range history {
		if normalizeQuestion(h.Question) == target {
			return i
		}
	}
	return -1
}

type finalReportView struct {
	types.FinalReportInput
	TotalQuestions int
	ExpectedStatus types.ReportStatus
	ResumeText     string
}

// FinalReport scores a finished or abandoned interview. The status is
// derived from the number of answered questions, and an empty history always
// scores 0 with no per-question feedback.
func (s *Service) FinalReport(ctx context.Context, in *types.FinalReportInput) (*types.FinalReportOutput, error) {
	if err := s.validateInput(FinalReport, in); err != nil {
		return nil, err
	}

	view := finalReportView{
		FinalReportInput: *in,
		TotalQuestions:   types.InterviewLength,
		ExpectedStatus:   types.ExpectedStatus(len(in.History)),
	}

	var media []llm.Media
	if in.ResumeDataURI != "" {
		m, text, err := loadDocument(FinalReport, "resumeDataUri", in.ResumeDataURI)
		if err != nil {
			return nil, err
		}
		media, view.ResumeText = m, text
	}

	out, err := generate[types.FinalReportOutput](ctx, s, FinalReport, view, media)
	if err != nil {
		return nil, err
	}

	if out.Summary.Status != view.ExpectedStatus {
		s.logger.DebugContext(ctx, "overriding report status",
			"flow", FinalReport,
			"model_status", out.Summary.Status,
			"status", view.ExpectedStatus)
		out.Summary.Status = view.ExpectedStatus
	}
	if len(in.History) == 0 {
		out.OverallScore = 0
		out.QuestionFeedback = nil
	}
	return out, nil
}

// RoleCompatibility scores how well a resume fits a target role
func (s *Service) RoleCompatibility(ctx context.Context, in *types.RoleCompatibilityInput) (*types.RoleCompatibilityOutput, error) {
	if err := s.validateInput(RoleCompatibility, in); err != nil {
		return nil, err
	}
	return generate[types.RoleCompatibilityOutput](ctx, s, RoleCompatibility, in, nil)
}

// JobTrends produces the salary, demand and skills snapshot for the market
// dashboard. It takes no input.
func (s *Service) JobTrends(ctx context.Context) (*types.JobTrendsOutput, error) {
	return generate[types.JobTrendsOutput](ctx, s, JobTrends, struct{}{}, nil)
}
