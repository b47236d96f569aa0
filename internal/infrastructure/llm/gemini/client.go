package gemini

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mlevkov/claimaudit/internal/infrastructure/resilience"
)

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
	executor   *resilience.Executor
}

type Options struct {
	// RequestsPerMinute caps outbound model calls. Zero disables the limiter.
	RequestsPerMinute  int
	Timeout            time.Duration
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, apiKey, model string) *Client {
	return NewWithOptions(baseURL, apiKey, model, Options{})
}

func NewWithOptions(baseURL, apiKey, model string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	var limiter *rate.Limiter
	if options.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(options.RequestsPerMinute)/60.0), 1)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		executor:   options.ResilienceExecutor,
	}
}

func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	}
	return c.generate(ctx, "gemini.generate", req)
}

func (c *Client) DescribeImage(ctx context.Context, mimeType string, data []byte, prompt string) (string, error) {
	req := generateRequest{
		Contents: []content{{Parts: []part{
			{Text: prompt},
			{InlineData: &inlineData{
				MIMEType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(data),
			}},
		}}},
	}
	return c.generate(ctx, "gemini.describe_image", req)
}

func (c *Client) generate(ctx context.Context, operation string, req generateRequest) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	var response generateResponse
	call := func(ctx context.Context) error {
		response = generateResponse{}
		return c.postJSON(ctx, c.endpoint(), req, &response, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, call, classifyGeminiError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return "", wrapGeminiError(operation, err)
	}

	text := response.text()
	if text == "" {
		return "", fmt.Errorf("gemini %s: empty candidate response", operation)
	}
	return text, nil
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (r generateResponse) text() string {
	var sb strings.Builder
	for _, candidate := range r.Candidates {
		for _, p := range candidate.Content.Parts {
			sb.WriteString(p.Text)
		}
		break
	}
	return strings.TrimSpace(sb.String())
}
