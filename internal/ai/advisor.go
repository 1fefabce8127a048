// Package ai builds textual context from a ticket and its conversation and
// consults a chat-completion model for reply suggestions and structured
// analysis. The model endpoint is OpenAI-compatible; its output is parsed
// defensively because models routinely wrap or malform the requested JSON.
package ai

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/suportia/helpdesk/internal/errs"
	"github.com/suportia/helpdesk/internal/model"
)

// Config for the advisor. Missing APIKey leaves the advisor unconfigured:
// every call then fails fast with errs.ErrAINotConfigured before any network
// activity.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

type Advisor struct {
	client *openai.Client
	model  string
}

func New(cfg Config) *Advisor {
	if cfg.APIKey == "" {
		return &Advisor{}
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	m := cfg.Model
	if m == "" {
		m = openai.GPT4oMini
	}
	return &Advisor{client: openai.NewClientWithConfig(clientCfg), model: m}
}

func (a *Advisor) configured() bool {
	return a.client != nil
}

func (a *Advisor) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("ai: completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("ai: completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// SuggestResponse asks the model for a reply to a local ticket's
// conversation and returns the raw suggested text.
func (a *Advisor) SuggestResponse(ctx context.Context, ticket *model.Ticket, messages []model.TicketMessage) (string, error) {
	if !a.configured() {
		return "", errs.ErrAINotConfigured
	}

	var conversation strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&conversation, "%s: %s\n", m.SenderID, m.Content)
	}

	prompt := fmt.Sprintf(
		"You are a helpful support agent. Suggest a response for the following ticket conversation:\n\n"+
			"Ticket: %s\nDescription: %s\n\nConversation:\n%s\nSuggested Response:",
		ticket.Title, ticket.Description, conversation.String())

	return a.complete(ctx, prompt)
}

// Analysis is the structured result of AnalyzeTicket. All three fields are
// always populated, even when the model's output is malformed.
type Analysis struct {
	Analysis               string `json:"analysis"`
	Category               string `json:"category"`
	ResolutionInstructions string `json:"resolutionInstructions"`
}

// AnalyzeTicket builds a structured context block from a ticket of either
// source and requests a JSON-shaped analysis from the model.
func (a *Advisor) AnalyzeTicket(ctx context.Context, ticket *model.Ticket, messages []model.TicketMessage) (*Analysis, error) {
	if !a.configured() {
		return nil, errs.ErrAINotConfigured
	}

	prompt := analysisPrompt(buildTicketContext(ticket, messages))
	text, err := a.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	analysis := parseAnalysis(text)
	return &analysis, nil
}

// buildTicketContext renders title, description, status, priority, category
// and the chronological follow-up transcript with localized timestamps.
func buildTicketContext(ticket *model.Ticket, messages []model.TicketMessage) string {
	var transcript strings.Builder
	for i, m := range messages {
		date := "Data não disponível"
		if !m.CreatedAt.IsZero() {
			date = m.CreatedAt.Format("02/01/2006 15:04:05")
		}
		fmt.Fprintf(&transcript, "Acompanhamento %d (%s):\n%s\n\n", i+1, date, m.Content)
	}
	followups := strings.TrimSpace(transcript.String())
	if followups == "" {
		followups = "Nenhum acompanhamento registrado."
	}
	category := ticket.Category
	if category == "" {
		category = "Não especificada"
	}
	return strings.TrimSpace(fmt.Sprintf(`TÍTULO DO CHAMADO: %s

DESCRIÇÃO: %s

STATUS: %s
PRIORIDADE: %s
CATEGORIA ATUAL: %s

ACOMPANHAMENTOS:
%s`, ticket.Title, ticket.Description, ticket.Status, ticket.Priority, category, followups))
}

func analysisPrompt(ticketContext string) string {
	return fmt.Sprintf(`Você é um assistente especializado em análise de chamados de suporte técnico.

Analise o seguinte chamado e forneça:

1. ANÁLISE: Uma análise detalhada do problema descrito, identificando a causa raiz e aspectos importantes.

2. CATEGORIA: Categorize o chamado em uma das seguintes opções (retorne apenas o nome da categoria):
   - Geral
   - Faturamento
   - Técnico
   - Recurso

3. INSTRUÇÕES PARA RESOLUÇÃO: Um passo a passo claro e objetivo de como resolver o problema.

FORMATO DE RESPOSTA:
Use o formato JSON com as seguintes chaves:
{
  "analysis": "sua análise aqui",
  "category": "nome da categoria aqui",
  "resolutionInstructions": "instruções passo a passo aqui"
}

CHAMADO PARA ANÁLISE:
%s`, ticketContext)
}
