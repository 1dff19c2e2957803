package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	genaisdk "google.golang.org/genai"
)

const (
	agentAppName = "career-coach"
	agentUserID  = "career-coach"
)

const agentInstruction = `You are an expert career coach. Follow the user's instructions exactly.
When asked for JSON, return a single JSON object and nothing else.`

// AgentClient implements Client by running every request as a single turn
// through an ADK agent. Each call gets its own in-memory session, which is
// deleted afterwards, so no conversational state leaks between requests.
type AgentClient struct {
	config   *Config
	sessions session.Service
	runners  map[ModelTier]*runner.Runner
}

// NewAgentClient builds one ADK runner per configured model tier.
func NewAgentClient(ctx context.Context, config *Config, apiKey string) (*AgentClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	c := &AgentClient{
		config:   config,
		sessions: session.InMemoryService(),
		runners:  make(map[ModelTier]*runner.Runner),
	}

	for tier, modelName := range config.Models {
		model, err := gemini.NewModel(ctx, modelName, &genaisdk.ClientConfig{APIKey: apiKey})
		if err != nil {
			return nil, fmt.Errorf("failed to create model %s: %w", modelName, err)
		}

		a, err := llmagent.New(llmagent.Config{
			Name:        fmt.Sprintf("career_coach_%s", tier),
			Model:       model,
			Description: "Career coaching assistant",
			Instruction: agentInstruction,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create agent for tier %s: %w", tier, err)
		}

		r, err := runner.New(runner.Config{
			AppName:        agentAppName,
			Agent:          a,
			SessionService: c.sessions,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create runner for tier %s: %w", tier, err)
		}
		c.runners[tier] = r
	}

	return c, nil
}

// GenerateContent generates text content using the specified model tier
func (c *AgentClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return c.run(ctx, Request{Prompt: prompt, Tier: tier})
}

// GenerateJSON generates JSON content, attaching any inline media
func (c *AgentClient) GenerateJSON(ctx context.Context, req Request) (string, error) {
	text, err := c.run(ctx, req)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

func (c *AgentClient) run(ctx context.Context, req Request) (string, error) {
	r := c.runnerFor(req.Tier)
	if r == nil {
		return "", fmt.Errorf("no model configured for tier %s", req.Tier)
	}

	created, err := c.sessions.Create(ctx, &session.CreateRequest{
		AppName:   agentAppName,
		UserID:    agentUserID,
		SessionID: uuid.NewString(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to create agent session: %w", err)
	}
	sess := created.Session
	defer func() {
		_ = c.sessions.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
			AppName:   agentAppName,
			UserID:    sess.UserID(),
			SessionID: sess.ID(),
		})
	}()

	parts := []*genaisdk.Part{{Text: req.Prompt}}
	for _, m := range req.Media {
		parts = append(parts, &genaisdk.Part{InlineData: &genaisdk.Blob{MIMEType: m.MIMEType, Data: m.Data}})
	}
	msg := &genaisdk.Content{Role: "user", Parts: parts}

	var output string
	for event, err := range r.Run(ctx, sess.UserID(), sess.ID(), msg, agent.RunConfig{}) {
		if err != nil {
			return "", fmt.Errorf("failed to generate content: %w", err)
		}
		if event != nil && event.IsFinalResponse() && event.Content != nil && len(event.Content.Parts) > 0 {
			output = event.Content.Parts[0].Text
		}
	}

	output = strings.TrimSpace(output)
	if output == "" {
		return "", fmt.Errorf("empty agent response")
	}
	return output, nil
}

func (c *AgentClient) runnerFor(tier ModelTier) *runner.Runner {
	if r, ok := c.runners[tier]; ok {
		return r
	}
	if r, ok := c.runners[TierStandard]; ok {
		return r
	}
	return c.runners[TierLite]
}

// GetModel returns the model name for a tier
func (c *AgentClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; sessions are removed after every call.
func (c *AgentClient) Close() error {
	return nil
}
