// Package types provides type definitions for structured data used throughout the career-coach system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// InterviewLength is the number of questions in a full mock interview.
const InterviewLength = 15

// Difficulty is the mock interview difficulty level
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// InterviewType selects the question mix of a mock interview
type InterviewType string

const (
	InterviewTechnical  InterviewType = "technical"
	InterviewBehavioral InterviewType = "behavioral"
	InterviewMixed      InterviewType = "mixed"
)

// InterviewMode is how the candidate answered (typed or spoken)
type InterviewMode string

const (
	ModeText  InterviewMode = "text"
	ModeVoice InterviewMode = "voice"
)

// ReportStatus is the completion state reported in a final report summary
type ReportStatus string

const (
	StatusCompleted  ReportStatus = "Completed"
	StatusEndedEarly ReportStatus = "Ended early"
)

// QAPair is one asked question and the candidate's answer
type QAPair struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer"`
}

// MentorGuidanceInput is the input to the mentor guidance flow
type MentorGuidanceInput struct {
	Query      string `json:"query" validate:"required,max=4000"`
	ResumeText string `json:"resumeText,omitempty"`
}

// Resource is a learning resource suggested by the mentor
type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url,omitempty"`
}

// MentorGuidanceOutput is the mentor's answer
type MentorGuidanceOutput struct {
	Guidance         string     `json:"guidance"`
	SuggestedActions []string   `json:"suggestedActions,omitempty"`
	Resources        []Resource `json:"resources,omitempty"`
}

// ResumeAnalysisInput carries the uploaded document as a data URI
// (data:<mime>;base64,<payload>).
type ResumeAnalysisInput struct {
	ResumeDataURI string `json:"resumeDataUri" validate:"required,datauri"`
}

// SuggestedRole is a role the candidate fits, with a 0-100 confidence
type SuggestedRole struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// ResumeAnalysisOutput is either a rejection (IsResume=false with only
// RejectionReason set) or a full analysis.
type ResumeAnalysisOutput struct {
	IsResume            bool            `json:"isResume"`
	RejectionReason     string          `json:"rejectionReason,omitempty"`
	Summary             string          `json:"summary,omitempty"`
	ExtractedSkills     []string        `json:"extractedSkills,omitempty"`
	Strengths           []string        `json:"strengths,omitempty"`
	AreasForImprovement []string        `json:"areasForImprovement,omitempty"`
	SuggestedRoles      []SuggestedRole `json:"suggestedRoles,omitempty"`
	ATSScore            *float64        `json:"atsScore,omitempty"`
}

// InterviewQuestionInput is the input for generating the next interview question
type InterviewQuestionInput struct {
	JobRole       string        `json:"jobRole" validate:"required,max=200"`
	Difficulty    Difficulty    `json:"difficulty" validate:"required,oneof=easy medium hard"`
	InterviewType InterviewType `json:"interviewType" validate:"required,oneof=technical behavioral mixed"`
	ResumeText    string        `json:"resumeText" validate:"required"`
	History       []QAPair      `json:"history,omitempty" validate:"omitempty,max=50,dive"`
}

// InterviewQuestionOutput is the generated question
type InterviewQuestionOutput struct {
	Question       string `json:"question"`
	Topic          string `json:"topic"`
	QuestionNumber int    `json:"questionNumber,omitempty"`
}

// FinalReportInput is the input for scoring a finished (or abandoned) interview
type FinalReportInput struct {
	JobRole       string        `json:"jobRole" validate:"required,max=200"`
	Difficulty    Difficulty    `json:"difficulty" validate:"required,oneof=easy medium hard"`
	Mode          InterviewMode `json:"mode" validate:"required,oneof=text voice"`
	ResumeDataURI string        `json:"resumeDataUri,omitempty" validate:"omitempty,datauri"`
	History       []QAPair      `json:"history" validate:"max=50,dive"`
}

// ReportSummary is the headline section of a final report
type ReportSummary struct {
	Status              ReportStatus `json:"status"`
	Overview            string       `json:"overview"`
	Strengths           []string     `json:"strengths,omitempty"`
	AreasForImprovement []string     `json:"areasForImprovement,omitempty"`
}

// QuestionFeedback is the per-question assessment in a final report
type QuestionFeedback struct {
	Question string  `json:"question"`
	Answer   string  `json:"answer,omitempty"`
	Feedback string  `json:"feedback"`
	Score    float64 `json:"score"`
}

// FinalReportOutput is the interview feedback report
type FinalReportOutput struct {
	OverallScore     float64            `json:"overallScore"`
	Summary          ReportSummary      `json:"summary"`
	QuestionFeedback []QuestionFeedback `json:"questionFeedback,omitempty"`
	Recommendations  []string           `json:"recommendations,omitempty"`
}

// ExpectedStatus returns the report status implied by the number of
// answered questions.
func ExpectedStatus(answered int) ReportStatus {
	if answered < InterviewLength {
		return StatusEndedEarly
	}
	return StatusCompleted
}

// RoleCompatibilityInput is the input to the role compatibility flow
type RoleCompatibilityInput struct {
	JobRole    string `json:"jobRole" validate:"required,max=200"`
	ResumeText string `json:"resumeText" validate:"required"`
}

// RoleCompatibilityOutput scores how well a resume fits a role
type RoleCompatibilityOutput struct {
	CompatibilityScore float64  `json:"compatibilityScore"`
	Verdict            string   `json:"verdict"`
	MatchingSkills     []string `json:"matchingSkills"`
	MissingSkills      []string `json:"missingSkills"`
	Recommendations    []string `json:"recommendations,omitempty"`
}

// SalaryPoint is an average salary for one experience level
type SalaryPoint struct {
	Level  string  `json:"level"`
	Salary float64 `json:"salary"`
}

// DemandPoint is a demand index (0-100) for one role
type DemandPoint struct {
	Role   string  `json:"role"`
	Demand float64 `json:"demand"`
}

// JobTrendsOutput is the market snapshot used by the dashboard charts
type JobTrendsOutput struct {
	SalaryByExperience []SalaryPoint `json:"salaryByExperience"`
	MarketDemand       []DemandPoint `json:"marketDemand"`
	TopSkills          []string      `json:"topSkills,omitempty"`
	Insights           string        `json:"insights"`
}
