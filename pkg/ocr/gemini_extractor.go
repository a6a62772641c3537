package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"paragon-backend/domain"
	"paragon-backend/internal/utils"
)

type geminiExtractor struct {
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewGeminiExtractor(logger *logrus.Logger) ReceiptExtractor {
	return &geminiExtractor{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

const extractPrompt = `Analyze this receipt image and respond ONLY with a valid JSON object containing exactly these fields: ` +
	`'shop_name' (string or null), 'shop_address' (string or null), 'purchase_datetime' (string in YYYY-MM-DD HH:MM:SS format, or null), ` +
	`'total' (number, the declared receipt total), 'currency' (ISO code string), and 'items' (array). ` +
	`Each item has: 'name' (string, exactly as printed), 'quantity' (number), 'unit_price' (number or null), ` +
	`'total_price' (number), 'category' (string or null, your best guess of an expense category), ` +
	`'confidence' (number between 0 and 1). Do not include any explanations, markdown formatting, or extra text.`

func (e *geminiExtractor) ExtractReceipt(ctx context.Context, image []byte, mimeType string) (*ExtractedReceipt, error) {
	apiKey := utils.GetConfig("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not configured")
	}

	model := utils.GetConfig("GEMINI_VISION_MODEL")
	if model == "" {
		model = "gemini-2.0-flash"
	}

	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	geminiURL := fmt.Sprintf(
		"https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent?key=%s",
		model, apiKey,
	)

	requestBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]interface{}{
					{"text": extractPrompt},
					{
						"inline_data": map[string]interface{}{
							"mime_type": mimeType,
							"data":      base64.StdEncoding.EncodeToString(image),
						},
					},
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
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", geminiURL, bytes.NewBuffer(requestJSON))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gemini API error: %s - %s", resp.Status, string(bodyBytes))
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
		return nil, err
	}

	if len(geminiResp.Candidates) == 0 || len(geminiResp.Candidates[0].Content.Parts) == 0 {
		return nil, domain.ErrExtractionFailed
	}

	receipt, err := parseExtractResponse(geminiResp.Candidates[0].Content.Parts[0].Text)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"module": "ocr",
		}).Error("failed to parse extraction response: ", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}

	if len(receipt.Items) == 0 {
		return nil, domain.ErrEmptyExtraction
	}
	return receipt, nil
}

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

func parseExtractResponse(responseText string) (*ExtractedReceipt, error) {
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
		ShopName         *string  `json:"shop_name"`
		ShopAddress      *string  `json:"shop_address"`
		PurchaseDatetime *string  `json:"purchase_datetime"`
		Total            float64  `json:"total"`
		Currency         string   `json:"currency"`
		Items            []struct {
			Name       string   `json:"name"`
			Quantity   float64  `json:"quantity"`
			UnitPrice  *float64 `json:"unit_price"`
			TotalPrice float64  `json:"total_price"`
			Category   *string  `json:"category"`
			Confidence float64  `json:"confidence"`
		} `json:"items"`
	}
	if err := json.Unmarshal([]byte(responseText), &parsed); err != nil {
		return nil, err
	}

	receipt := &ExtractedReceipt{
		DeclaredTotal: decimal.NewFromFloat(parsed.Total),
		Currency:      parsed.Currency,
	}
	if parsed.ShopName != nil {
		receipt.ShopName = strings.TrimSpace(*parsed.ShopName)
	}
	if parsed.ShopAddress != nil {
		receipt.ShopAddress = strings.TrimSpace(*parsed.ShopAddress)
	}
	if parsed.PurchaseDatetime != nil {
		if t, err := parsePurchaseDatetime(*parsed.PurchaseDatetime); err == nil {
			receipt.PurchasedAt = &t
		}
	}

	for _, item := range parsed.Items {
		raw := RawLineItem{
			Name:       item.Name,
			Quantity:   decimal.NewFromFloat(item.Quantity),
			TotalPrice: decimal.NewFromFloat(item.TotalPrice),
			Confidence: item.Confidence,
		}
		if item.UnitPrice != nil {
			unitPrice := decimal.NewFromFloat(*item.UnitPrice)
			raw.UnitPrice = &unitPrice
		}
		if item.Category != nil {
			raw.CategorySuggestion = strings.TrimSpace(*item.Category)
		}
		if raw.Confidence < 0 || raw.Confidence > 1 {
			raw.Confidence = 0.5
		}
		receipt.Items = append(receipt.Items, raw)
	}

	return receipt, nil
}

func parsePurchaseDatetime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime format: %q", value)
}
