package classifier

import (
	"context"
)

type (
	// ClassifyInput is the plain text-in contract for category classification.
	// Categories is the closed list of acceptable answers.
	ClassifyInput struct {
		Text       string
		Suggestion string
		ShopName   string
		Categories []string
	}

	// ClassifyResult carries the classifier's answer. CategoryName is empty
	// when the classifier declined to choose.
	ClassifyResult struct {
		CategoryName string
		Confidence   float64
		Reasoning    string
	}

	CategoryClassifier interface {
		Classify(ctx context.Context, input ClassifyInput) (ClassifyResult, error)
	}
)
