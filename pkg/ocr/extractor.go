package ocr

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"paragon-backend/domain"
)

// Tolerance bands for the declared total vs the sum of extracted item totals.
const (
	totalAcceptTolerance = 0.05
	totalRejectTolerance = 0.20
)

type (
	// RawLineItem is one extracted receipt line, immutable once produced.
	RawLineItem struct {
		Name               string           `json:"name"`
		Quantity           decimal.Decimal  `json:"quantity"`
		UnitPrice          *decimal.Decimal `json:"unit_price,omitempty"`
		TotalPrice         decimal.Decimal  `json:"total_price"`
		CategorySuggestion string           `json:"category_suggestion,omitempty"`
		Confidence         float64          `json:"confidence"`
	}

	ExtractedReceipt struct {
		ShopName      string          `json:"shop_name,omitempty"`
		ShopAddress   string          `json:"shop_address,omitempty"`
		PurchasedAt   *time.Time      `json:"purchase_datetime,omitempty"`
		DeclaredTotal decimal.Decimal `json:"declared_total"`
		Currency      string          `json:"currency,omitempty"`
		Items         []RawLineItem   `json:"items"`
	}

	// ReceiptExtractor turns receipt image bytes into structured line items.
	ReceiptExtractor interface {
		ExtractReceipt(ctx context.Context, image []byte, mimeType string) (*ExtractedReceipt, error)
	}
)

// ValidateTotals checks the sum of item totals against the declared total.
// Within 5% the extraction is accepted as-is; between 5% and 20% it is
// accepted but flagged for manual verification; beyond 20% the extraction is
// considered broken and rejected. A missing or zero declared total cannot be
// cross-checked and is flagged for verification.
func ValidateTotals(receipt *ExtractedReceipt) (needsVerification bool, err error) {
	if receipt.DeclaredTotal.IsZero() {
		return true, nil
	}

	sum := decimal.Zero
	for _, item := range receipt.Items {
		sum = sum.Add(item.TotalPrice)
	}

	diff, _ := sum.Sub(receipt.DeclaredTotal).Abs().Div(receipt.DeclaredTotal).Float64()
	switch {
	case diff <= totalAcceptTolerance:
		return false, nil
	case diff <= totalRejectTolerance:
		return true, nil
	default:
		return false, fmt.Errorf("%w: items sum %s vs declared %s",
			domain.ErrTotalMismatch, sum.String(), receipt.DeclaredTotal.String())
	}
}
