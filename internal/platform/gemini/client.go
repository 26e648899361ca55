// Package gemini is the client for the external multimodal analyzer. The rest
// of the backend only sees Analyze: prompt plus media in, raw text out.
package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	pkgerrors "github.com/fairwaylabs/swingsense-backend/internal/pkg/errors"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/envutil"
	"github.com/fairwaylabs/swingsense-backend/internal/platform/logger"
)

// MediaRef is either an externally hosted video URL or an inline base64 block.
type MediaRef struct {
	URL        string
	InlineData []byte
	MimeType   string
}

func (m MediaRef) empty() bool {
	return m.URL == "" && len(m.InlineData) == 0
}

type Client interface {
	Analyze(ctx context.Context, prompt string, media MediaRef) (string, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
}

func NewClient(log *logger.Logger) (Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing GEMINI_API_KEY")
	}

	baseURL := envutil.Str("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	baseURL = strings.TrimRight(baseURL, "/")
	model := envutil.Str("GEMINI_MODEL", "gemini-2.0-flash")
	maxRetries := envutil.Int("GEMINI_MAX_RETRIES", 2)

	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	return &client{
		log:     log.With("service", "GeminiClient"),
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   model,
		// Per-call deadlines come from the caller's context; the score,
		// rubric and insight paths use different bounds.
		httpClient: &http.Client{},
		maxRetries: maxRetries,
	}, nil
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	FileData   *fileData   `json:"file_data,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type fileData struct {
	MimeType string `json:"mime_type,omitempty"`
	FileURI  string `json:"file_uri"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
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

func (c *client) Analyze(ctx context.Context, prompt string, media MediaRef) (string, error) {
	parts := []part{{Text: prompt}}
	switch {
	case media.URL != "":
		parts = append(parts, part{FileData: &fileData{MimeType: media.MimeType, FileURI: media.URL}})
	case len(media.InlineData) > 0:
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: media.MimeType,
			Data:     base64.StdEncoding.EncodeToString(media.InlineData),
		}})
	}
	if media.empty() && prompt == "" {
		return "", fmt.Errorf("nothing to analyze")
	}

	body, err := json.Marshal(generateRequest{Contents: []content{{Parts: parts}}})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * 2 * time.Second
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", wrapCtxErr(ctx.Err())
			}
		}

		text, retriable, err := c.doOnce(ctx, url, body)
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !retriable {
			return "", err
		}
		c.log.Warn("analyzer call failed; retrying", "attempt", attempt+1, "error", err)
	}
	return "", lastErr
}

func (c *client) doOnce(ctx context.Context, url string, body []byte) (text string, retriable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := wrapCtxErr(err); ctxErr != nil {
			return "", false, ctxErr
		}
		return "", true, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return "", true, err
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return "", true, fmt.Errorf("analyzer returned %d: %s", resp.StatusCode, truncate(raw, 200))
	}
	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("analyzer returned %d: %s", resp.StatusCode, truncate(raw, 200))
	}

	var parsed generateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", false, pkgerrors.New(pkgerrors.CodeMalformedResponse, err)
	}
	var sb strings.Builder
	for _, cand := range parsed.Candidates {
		for _, p := range cand.Content.Parts {
			sb.WriteString(p.Text)
		}
	}
	if sb.Len() == 0 {
		return "", false, pkgerrors.Newf(pkgerrors.CodeMalformedResponse, "empty analyzer reply")
	}
	return sb.String(), false, nil
}

func wrapCtxErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.New(pkgerrors.CodeTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func truncate(b []byte, n int) string {
	s := string(b)
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
