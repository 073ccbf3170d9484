package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spherical/pdf-dataset/internal/domain"
	"github.com/spherical/pdf-dataset/internal/observability"
)

const (
	defaultEndpoint = "http://localhost:3000/ia"
	defaultTimeout  = 15 * time.Minute

	// UnresolvedMarker is the phrase the service is told to emit for text it cannot fix.
	UnresolvedMarker = "Não entendi essa etapa do texto"

	maxErrorBody = 512
)

// Options configures the correction client
type Options struct {
	Endpoint      string
	Timeout       time.Duration
	DocumentTitle string
	// HTTPClient overrides the client built from Timeout. Used by tests.
	HTTPClient *http.Client
}

// Client sends page text to the correction service
type Client struct {
	endpoint   string
	title      string
	httpClient *http.Client
	logger     *observability.Logger
}

// Request is the JSON body accepted by the correction endpoint
type Request struct {
	Text string `json:"text"`
}

// NewClient creates a new correction client
func NewClient(opts Options, logger *observability.Logger) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = defaultEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = observability.Nop()
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	return &Client{
		endpoint:   opts.Endpoint,
		title:      opts.DocumentTitle,
		httpClient: httpClient,
		logger:     logger.WithComponent("correction"),
	}
}

// Correct returns the service's correction of text. On any failure the
// original text is returned together with the error; there are no retries.
func (c *Client) Correct(ctx context.Context, text string, page int) domain.Correction {
	start := time.Now()

	corrected, err := c.send(ctx, text)
	if err != nil {
		c.logger.Warn().
			Int("page", page).
			Err(err).
			Dur("elapsed", time.Since(start)).
			Msg("Correction failed, keeping original text")
		return domain.Correction{Text: text, Err: domain.APIError("correction request failed", err).OnPage(page)}
	}

	c.logger.Info().
		Int("page", page).
		Dur("elapsed", time.Since(start)).
		Msg("Page corrected")
	return domain.Correction{Text: corrected, Corrected: true}
}

// Close releases pooled connections
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) send(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(Request{Text: BuildPrompt(text, c.title)})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(respBody))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return "", fmt.Errorf("service returned status %d: %s", resp.StatusCode, snippet)
	}

	return string(respBody), nil
}

// BuildPrompt embeds page text in the fixed correction instructions
func BuildPrompt(text, documentTitle string) string {
	var b strings.Builder
	b.WriteString("Você é um corretor ortográfico de Português Brasil. Revise o texto preservando a formatação original e melhorando a legibilidade, seguindo estas regras:\n")
	b.WriteString("- Não adicione nenhum texto além da correção, envie apenas a correção;\n")
	if documentTitle != "" {
		fmt.Fprintf(&b, "- O texto foi retirado do manual %s;\n", documentTitle)
	}
	b.WriteString("- Corrija as listas que estiverem com a formatação errada;\n")
	b.WriteString("- O que for sumário, corrija para que fique com formatação de sumário, sem enviar nada além da correção;\n")
	b.WriteString("- Remova todo hífen ('-') encontrado na transcrição, juntando as palavras;\n")
	fmt.Fprintf(&b, "- Caso não consiga corrigir algo, aponte a parte não corrigida com a frase: '%s';\n", UnresolvedMarker)
	b.WriteString("\nFaça isso no seguinte texto:\n")
	b.WriteString(text)
	return b.String()
}
