package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"
)

// maxAnswerRunes truncates overlong generations before they reach the user.
const maxAnswerRunes = 200

// Generator produces a grounded Arabic answer for a question given retrieved
// context.
type Generator interface {
	Generate(ctx context.Context, question, contextText string) (string, error)
}

// GeneratorConfig holds generation client construction options.
type GeneratorConfig struct {
	// URL is the text-generation service endpoint.
	URL string `mapstructure:"url"`
	// Model is the generation model identifier.
	Model string `mapstructure:"model"`
	// Timeout bounds each generation request.
	Timeout time.Duration `mapstructure:"timeout"`
}

// HTTPGenerator calls an external text-generation service.
type HTTPGenerator struct {
	httpClient *http.Client
	url        string
	model      string
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// NewHTTPGenerator creates a generation client.
func NewHTTPGenerator(cfg GeneratorConfig) *HTTPGenerator {
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	return &HTTPGenerator{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		url:        cfg.URL,
		model:      cfg.Model,
	}
}

// Generate builds a grounded prompt and asks the service for a short Arabic
// answer. The answer is truncated to a bounded length.
func (g *HTTPGenerator) Generate(ctx context.Context, question, contextText string) (string, error) {
	prompt := BuildPrompt(question, contextText)

	payload, err := json.Marshal(generateRequest{Model: g.model, Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("generate: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("generate: create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generate: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("generate: service returned %d: %s", resp.StatusCode, string(body))
	}

	var decoded generateResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&decoded); decodeErr != nil {
		return "", fmt.Errorf("generate: decode response: %w", decodeErr)
	}

	return TruncateAnswer(strings.TrimSpace(decoded.Text)), nil
}

// BuildPrompt frames the question so the model answers from the supplied
// context only, in brief formal Arabic.
func BuildPrompt(question, contextText string) string {
	var sb strings.Builder

	sb.WriteString("المعلومات التالية مأخوذة من مصادر موثوقة:\n")
	sb.WriteString(contextText)
	sb.WriteString("\n\n")
	sb.WriteString("أجب عن السؤال التالي بالعربية الفصحى وباختصار شديد (جملة أو جملتان كحد أقصى)، ")
	sb.WriteString("واعتمد فقط على المعلومات أعلاه. إن لم تجد الإجابة فأجب: لا أعرف.\n")
	sb.WriteString("السؤال: ")
	sb.WriteString(question)
	sb.WriteString("\nالإجابة المختصرة:")

	return sb.String()
}

// TruncateAnswer bounds an answer to maxAnswerRunes, appending an ellipsis
// when it was cut.
func TruncateAnswer(answer string) string {
	if utf8.RuneCountInString(answer) <= maxAnswerRunes {
		return answer
	}

	runes := []rune(answer)

	return strings.TrimSpace(string(runes[:maxAnswerRunes])) + "…"
}
