package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	openaiOption "github.com/openai/openai-go/option"

	"github.com/salesagentai/outreach-backend/internal/model"
)

// Client wraps the LLM calls for company research and email drafting. Both
// run upstream of the dispatcher: the scheduler only ever sees emails that
// are already fully rendered and approved.
type Client struct {
	client openai.Client
	model  openai.ChatModel
}

func New(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	return &Client{
		client: openai.NewClient(openaiOption.WithAPIKey(apiKey)),
		model:  openai.ChatModelGPT4oMini,
	}, nil
}

const researchSystemPrompt = `You are a B2B sales researcher. Summarize what the company does,
its likely pain points, and one angle for a cold outreach email. Keep it under 150 words.`

func (c *Client) ResearchCompany(ctx context.Context, company, website string) (string, error) {
	prompt := fmt.Sprintf("Company: %s", company)
	if website != "" {
		prompt += fmt.Sprintf("\nWebsite: %s", website)
	}

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(researchSystemPrompt),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("research request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("research returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

const draftSystemPrompt = `You write short, personalized B2B cold outreach emails.
Reply with a subject line on the first line prefixed "Subject: ", a blank line,
then the email body. No placeholders, the email must be ready to send as-is.`

// DraftEmail produces a fully rendered subject and body for the lead.
func (c *Client) DraftEmail(ctx context.Context, lead *model.Lead, research string) (subject, body string, err error) {
	prompt := fmt.Sprintf("Lead: %s, %s at %s\nResearch:\n%s", lead.Name, lead.Title, lead.Company, research)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(draftSystemPrompt),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", "", fmt.Errorf("draft request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", "", fmt.Errorf("draft returned no choices")
	}

	subject, body = splitDraft(resp.Choices[0].Message.Content)
	if subject == "" || body == "" {
		return "", "", fmt.Errorf("draft response missing subject or body")
	}
	return subject, body, nil
}

// splitDraft separates the "Subject: ..." first line from the body.
func splitDraft(content string) (subject, body string) {
	content = strings.TrimSpace(content)
	line, rest, _ := strings.Cut(content, "\n")
	subject = strings.TrimSpace(strings.TrimPrefix(line, "Subject:"))
	body = strings.TrimSpace(rest)
	return subject, body
}
