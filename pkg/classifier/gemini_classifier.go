package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"paragon-backend/internal/utils"
)

const maxPromptCategories = 50

type (
	geminiClassifier struct {
		httpClient *http.Client
		retry      retryConfig
		logger     *logrus.Logger
	}

	apiError struct {
		StatusCode int
		Body       string
	}
)

func (e *apiError) Error() string {
	return fmt.Sprintf("gemini API error: status %d - %s", e.StatusCode, e.Body)
}

func NewGeminiClassifier(logger *logrus.Logger) CategoryClassifier {
	return &geminiClassifier{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		retry:      defaultRetryConfig(),
		logger:     logger,
	}
}

func (c *geminiClassifier) Classify(ctx context.Context, input ClassifyInput) (ClassifyResult, error) {
	apiKey := utils.GetConfig("GEMINI_API_KEY")
	if apiKey == "" {
		return ClassifyResult{}, fmt.Errorf("GEMINI_API_KEY not configured")
	}

	model := utils.GetConfig("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.0-flash"
	}

	var result ClassifyResult
	err := doWithRetry(ctx, c.retry, isTransientError, func() error {
		res, callErr := c.callGemini(ctx, apiKey, model, buildClassifyPrompt(input))
		if callErr != nil {
			return callErr
		}
		result = res
		return nil
	})
	if err != nil {
		return ClassifyResult{}, err
	}
	return result, nil
}

func (c *geminiClassifier) callGemini(ctx context.Context, apiKey, model, prompt string) (ClassifyResult, error) {
	geminiURL := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s",
		model, apiKey,
	)

	requestBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"temperature": 0.1,
			"topP":        0.8,
			"topK":        40,
		},
	}

	requestJSON, err := json.Marshal(requestBody)
	if err != nil {
		return ClassifyResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", geminiURL, bytes.NewBuffer(requestJSON))
	if err != nil {
		return ClassifyResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ClassifyResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return ClassifyResult{}, &apiError{StatusCode: resp.StatusCode, Body: string(bodyBytes)}
	}

	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return ClassifyResult{}, err
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		// Empty answer counts as "no categorization", not a failure.
		return ClassifyResult{}, nil
	}

	result, ok := parseClassifyResponse(geminiResp.Candidates[0].Content.Parts[0].Text)
	if !ok {
		c.logger.WithFields(logrus.Fields{
			"module": "classifier",
		}).Warn("unparseable classifier response, treating as no categorization")
		return ClassifyResult{}, nil
	}
	return result, nil
}

func buildClassifyPrompt(input ClassifyInput) string {
	categories := input.Categories
	if len(categories) > maxPromptCategories {
		categories = categories[:maxPromptCategories]
	}

	var b strings.Builder
	b.WriteString("You are categorizing a single grocery receipt line item into an expense category.\n")
	fmt.Fprintf(&b, "Item text: %q\n", input.Text)
	if input.Suggestion != "" {
		fmt.Fprintf(&b, "Category suggested by OCR: %q\n", input.Suggestion)
	}
	if input.ShopName != "" {
		fmt.Fprintf(&b, "Shop: %q\n", input.ShopName)
	}
	fmt.Fprintf(&b, "Allowed categories: %s\n", strings.Join(categories, ", "))
	b.WriteString("Respond ONLY with a valid JSON object containing exactly these fields: " +
		"'category' (one of the allowed categories, or null if none fits), " +
		"'confidence' (number between 0 and 1), and 'reasoning' (short string). " +
		"Do not include any explanations, markdown formatting, or extra text.")
	return b.String()
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

func parseClassifyResponse(responseText string) (ClassifyResult, bool) {
	if matches := jsonObjectRe.FindString(responseText); matches != "" {
		responseText = matches
	}

	responseText = strings.TrimSpace(responseText)
	if strings.HasPrefix(responseText, "```json") {
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimSuffix(responseText, "```")
	} else if strings.HasPrefix(responseText, "```") {
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
	}
	responseText = strings.TrimSpace(responseText)

	var parsed struct {
		Category   *string `json:"category"`
		Confidence float64 `json:"confidence"`
		Reasoning  string  `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
		return ClassifyResult{}, false
	}

	result := ClassifyResult{
		Confidence: parsed.Confidence,
		Reasoning:  parsed.Reasoning,
	}
	if parsed.Category != nil {
		result.CategoryName = strings.TrimSpace(*parsed.Category)
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		result.Confidence = 0
	}
	return result, true
}

// isTransientError reports whether an error is worth retrying: rate limits,
// server-side failures and timeouts. Bad requests and auth failures are not.
func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *apiError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests,
			http.StatusRequestTimeout,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
