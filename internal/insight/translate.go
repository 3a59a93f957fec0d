package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/swiftconvert/backend/internal/models"
)

// Translator converts extracted text into a target language. Implementations
// must be safe for concurrent use.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// HTTPTranslator calls an external translation HTTP API. The endpoint is
// expected to accept {"text": ..., "target_lang": ...} and respond with
// {"translated_text": ...}.
type HTTPTranslator struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

// NewHTTPTranslator reads TRANSLATE_API_URL and TRANSLATE_API_KEY from the
// environment. It returns nil when no endpoint is configured, which callers
// treat as translation being unavailable.
func NewHTTPTranslator() *HTTPTranslator {
	endpoint := os.Getenv("TRANSLATE_API_URL")
	if endpoint == "" {
		return nil
	}
	return &HTTPTranslator{
		Endpoint: endpoint,
		APIKey:   os.Getenv("TRANSLATE_API_KEY"),
		Client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type translateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
}

type translateResponse struct {
	TranslatedText string `json:"translated_text"`
}

func (t *HTTPTranslator) Translate(ctx context.Context, text, targetLang string) (string, error) {
	body, err := json.Marshal(translateRequest{Text: text, TargetLang: targetLang})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if t.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.APIKey)
	}

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrTranslationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("%w: status %d: %s", models.ErrTranslationUnavailable, resp.StatusCode, string(slurp))
	}

	var parsed translateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrTranslationUnavailable, err)
	}
	return parsed.TranslatedText, nil
}
