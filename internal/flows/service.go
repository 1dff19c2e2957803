// Package flows implements the schema-validated prompt flows: each one
// validates a typed input, renders a prompt, makes a single model call and
// validates the JSON it gets back before returning a typed output.
package flows

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/career-coach/internal/documents"
	"github.com/jonathan/career-coach/internal/llm"
	"github.com/jonathan/career-coach/internal/prompts"
	"github.com/jonathan/career-coach/internal/schemas"
)

// Name identifies a flow. It doubles as the prompt key and URL segment.
type Name string

const (
	MentorGuidance    Name = "mentor-guidance"
	ResumeAnalysis    Name = "resume-analysis"
	InterviewQuestion Name = "interview-question"
	FinalReport       Name = "final-report"
	RoleCompatibility Name = "role-compatibility"
	JobTrends         Name = "job-trends"
)

const promptFile = "flows.json"

// Names returns every registered flow
func Names() []Name {
	return []Name{MentorGuidance, ResumeAnalysis, InterviewQuestion, FinalReport, RoleCompatibility, JobTrends}
}

// schema returns the embedded output schema name for the flow
func (n Name) schema() string {
	return strings.ReplaceAll(string(n), "-", "_")
}

// defaultTiers picks the model tier per flow. Document reading and report
// scoring get the strongest model.
var defaultTiers = map[Name]llm.ModelTier{
	MentorGuidance:    llm.TierStandard,
	ResumeAnalysis:    llm.TierAdvanced,
	InterviewQuestion: llm.TierStandard,
	FinalReport:       llm.TierAdvanced,
	RoleCompatibility: llm.TierStandard,
	JobTrends:         llm.TierLite,
}

// Service runs flows against a model client. It holds no per-request state
// and is safe for concurrent use.
type Service struct {
	client   llm.Client
	validate *validator.Validate
	logger   *slog.Logger
	tiers    map[Name]llm.ModelTier
}

// NewService creates a flow service. A nil logger discards output.
func NewService(client llm.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	tiers := make(map[Name]llm.ModelTier, len(defaultTiers))
	for k, v := range defaultTiers {
		tiers[k] = v
	}

	return &Service{
		client:   client,
		validate: v,
		logger:   logger.With("component", "flows"),
		tiers:    tiers,
	}
}

// WithTier overrides the model tier used for a flow
func (s *Service) WithTier(name Name, tier llm.ModelTier) *Service {
	s.tiers[name] = tier
	return s
}

func (s *Service) validateInput(name Name, input any) error {
	if err := s.validate.Struct(input); err != nil {
		return newValidationError(name, err)
	}
	return nil
}

// generate renders the flow prompt, appends the output schema, makes one
// model call and returns the schema-valid decoded output.
func generate[O any](ctx context.Context, s *Service, name Name, data any, media []llm.Media) (*O, error) {
	prompt, err := prompts.Render(promptFile, string(name), data)
	if err != nil {
		return nil, &GenerationError{Flow: name, Message: "failed to render prompt", Cause: err}
	}

	schemaText, err := schemas.FlowSchema(name.schema())
	if err != nil {
		return nil, &GenerationError{Flow: name, Message: "missing output schema", Cause: err}
	}
	prompt += "\n\nRespond with a single JSON object that conforms to this JSON Schema:\n" + schemaText

	tier := s.tiers[name]
	start := time.Now()

	raw, err := s.client.GenerateJSON(ctx, llm.Request{Prompt: prompt, Media: media, Tier: tier})
	if err != nil {
		return nil, &GenerationError{Flow: name, Message: "model call failed", Cause: err}
	}
	raw = llm.CleanJSONBlock(raw)

	s.logger.DebugContext(ctx, "model responded",
		"flow", name,
		"model", s.client.GetModel(tier),
		"duration", time.Since(start),
		"bytes", len(raw))

	if err := schemas.ValidateFlowOutput(name.schema(), raw); err != nil {
		return nil, &GenerationError{Flow: name, Message: "output does not match schema", Cause: err}
	}

	var out O
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &GenerationError{Flow: name, Message: "failed to decode output", Cause: err}
	}
	return &out, nil
}

// loadDocument turns a resume data URI into either inline media the model
// reads directly or extracted text for the prompt.
func loadDocument(name Name, field, uri string) ([]llm.Media, string, error) {
	doc, err := documents.DecodeDataURI(uri)
	if err != nil {
		return nil, "", &ValidationError{Flow: name, Fields: []FieldError{{Field: field, Message: err.Error()}}}
	}

	if doc.Inline() {
		return []llm.Media{{MIMEType: doc.MIMEType, Data: doc.Data}}, "", nil
	}

	text, err := documents.ExtractText(doc)
	if err != nil {
		return nil, "", &ValidationError{Flow: name, Fields: []FieldError{{Field: field, Message: err.Error()}}}
	}
	return nil, text, nil
}

// Run decodes a JSON input for the named flow and executes it. It backs the
// generic HTTP and CLI entry points.
func (s *Service) Run(ctx context.Context, name Name, input json.RawMessage) (any, error) {
	switch name {
	case MentorGuidance:
		return runDecoded(ctx, name, input, s.MentorGuidance)
	case ResumeAnalysis:
		return runDecoded(ctx, name, input, s.ResumeAnalysis)
	case InterviewQuestion:
		return runDecoded(ctx, name, input, s.InterviewQuestion)
	case FinalReport:
		return runDecoded(ctx, name, input, s.FinalReport)
	case RoleCompatibility:
		return runDecoded(ctx, name, input, s.RoleCompatibility)
	case JobTrends:
		return s.JobTrends(ctx)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFlow, name)
	}
}

func runDecoded[I, O any](ctx context.Context, name Name, raw json.RawMessage, fn func(context.Context, *I) (*O, error)) (any, error) {
	var in I
	if len(strings.TrimSpace(string(raw))) > 0 {
		if err := json.Unmarshal(raw, &in); err != nil {
			return nil, &ValidationError{Flow: name, Fields: []FieldError{{Field: "(input)", Message: "malformed JSON: " + err.Error()}}}
		}
	}
	return fn(ctx, &in)
}
