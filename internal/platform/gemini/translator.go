// Package gemini implements the translation contract using Google's
// Gemini API.
package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/ankiqueue/ankiqueue/internal/config"
	"github.com/ankiqueue/ankiqueue/internal/translation"
)

// maxAttempts bounds retries against transient API failures.
const maxAttempts = 3

// baseRetryDelay is doubled on each failed attempt.
const baseRetryDelay = 2 * time.Second

// promptTemplate asks for the bare translation and nothing else, so
// the response can be used directly as the card back.
const promptTemplate = `Translate the following word or phrase into English.
Reply with only the translation, no explanations and no quotation marks.

Word or phrase: {{.Text}}
{{- if .Sentence}}
It appeared in this sentence, use it to pick the right sense: {{.Sentence}}
{{- end}}`

type promptData struct {
	Text     string
	Sentence string
}

// Translator implements translation.Translator with Gemini.
type Translator struct {
	client *genai.Client
	model  string
	tmpl   *template.Template
	logger *slog.Logger

	// sleep is swapped out in tests so retries do not stall the suite.
	sleep func(time.Duration)
}

var _ translation.Translator = (*Translator)(nil)

// NewTranslator creates a Gemini-backed translator.
func NewTranslator(ctx context.Context, cfg config.LLMConfig, log *slog.Logger) (*Translator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("gemini API key cannot be empty")
	}
	if cfg.Model == "" {
		return nil, errors.New("model name cannot be empty")
	}
	if log == nil {
		log = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Translator{
		client: client,
		model:  cfg.Model,
		tmpl:   template.Must(template.New("translate").Parse(promptTemplate)),
		logger: log.With(slog.String("component", "gemini_translator")),
		sleep:  time.Sleep,
	}, nil
}

// Translate implements translation.Translator. Transient API failures
// are retried with exponential backoff; an empty answer is treated as
// a failed translation.
func (t *Translator) Translate(ctx context.Context, text, sentence string) (string, error) {
	prompt, err := t.buildPrompt(text, sentence)
	if err != nil {
		return "", err
	}

	delay := baseRetryDelay
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := t.client.Models.GenerateContent(ctx, t.model, genai.Text(prompt), nil)
		if err == nil {
			answer := strings.TrimSpace(resp.Text())
			if answer == "" {
				return "", fmt.Errorf("%w: empty response from model", translation.ErrTranslationFailed)
			}
			return answer, nil
		}

		lastErr = err
		t.logger.WarnContext(ctx, "gemini call failed",
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			default:
			}
			t.sleep(delay)
			delay *= 2
		}
	}

	return "", fmt.Errorf("%w: %v", translation.ErrTranslationFailed, lastErr)
}

func (t *Translator) buildPrompt(text, sentence string) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, promptData{Text: text, Sentence: sentence}); err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}
	return buf.String(), nil
}
