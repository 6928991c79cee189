package services

import (
	"context"

	"go.uber.org/zap"
)

// UnrecognizedLabel is the sentinel food name both providers use when the
// dish cannot be identified.
const UnrecognizedLabel = "unrecognized"

// NutritionSummary holds the macro totals for the whole identified dish,
// regardless of which provider produced them.
type NutritionSummary struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
}

// IngredientDetail is one component of a dish. Only the primary
// classifier reports these.
type IngredientDetail struct {
	Label      string  `json:"label"`
	Weight     float64 `json:"weight"`
	Calories   float64 `json:"calories"`
	Protein    float64 `json:"protein"`
	Fat        float64 `json:"fat"`
	Carbs      float64 `json:"carbs"`
	Confidence float64 `json:"confidence"`
}

// FoodAnalysis is the canonical result both providers are normalized into.
type FoodAnalysis struct {
	FoodName    string             `json:"foodName"`
	Confidence  float64            `json:"confidence"`
	Nutrition   NutritionSummary   `json:"nutrition"`
	Ingredients []IngredientDetail `json:"ingredients,omitempty"`
}

// OutcomeKind tags an InferenceOutcome.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeLowConfidence
	OutcomeFailure
)

// InferenceOutcome is the result of one provider call, returned by value.
// Success and LowConfidence carry an analysis; Failure carries the error.
// Low confidence means the provider answered but could not identify the
// dish (confidence 0, empty label, or the unrecognized sentinel).
type InferenceOutcome struct {
	Kind     OutcomeKind
	Analysis FoodAnalysis
	Err      error
}

func SuccessOutcome(a FoodAnalysis) InferenceOutcome {
	return InferenceOutcome{Kind: OutcomeSuccess, Analysis: a}
}

func LowConfidenceOutcome(a FoodAnalysis) InferenceOutcome {
	return InferenceOutcome{Kind: OutcomeLowConfidence, Analysis: a}
}

func FailureOutcome(err error) InferenceOutcome {
	return InferenceOutcome{Kind: OutcomeFailure, Err: err}
}

// isUnconfident reports whether a parsed provider answer should be
// treated as low confidence rather than success.
func isUnconfident(foodName string, confidence float64) bool {
	return confidence == 0 || foodName == "" || foodName == UnrecognizedLabel
}

// Provider identifies which inference provider resolved an analysis.
type Provider string

const (
	ProviderClassifier Provider = "classifier"
	ProviderGemini     Provider = "gemini"
)

// PrimaryProvider is the first-consulted classifier.
type PrimaryProvider interface {
	Classify(ctx context.Context, image []byte, filename string) InferenceOutcome
}

// FallbackProvider is consulted only when the primary fails or answers
// without confidence.
type FallbackProvider interface {
	Classify(ctx context.Context, image []byte, mimeType string) InferenceOutcome
}

// ConfidenceGate decides which provider's answer stands. Each provider is
// consulted at most once, sequentially; there are no retries and no
// speculative fallback calls.
type ConfidenceGate struct {
	primary  PrimaryProvider
	fallback FallbackProvider
	logger   *zap.Logger
}

func NewConfidenceGate(primary PrimaryProvider, fallback FallbackProvider, logger *zap.Logger) *ConfidenceGate {
	return &ConfidenceGate{primary: primary, fallback: fallback, logger: logger}
}

// Resolve runs the gate for one image. A primary success is terminal. A
// primary failure or low-confidence answer triggers the fallback, whose
// success and low-confidence answers are both accepted as final (there is
// no tertiary provider). Only a fallback failure escalates.
func (g *ConfidenceGate) Resolve(ctx context.Context, image []byte, filename, mimeType string) (FoodAnalysis, Provider, error) {
	out := g.primary.Classify(ctx, image, filename)
	switch out.Kind {
	case OutcomeSuccess:
		g.logger.Info("using classifier analysis", zap.String("food", out.Analysis.FoodName))
		return out.Analysis, ProviderClassifier, nil
	case OutcomeLowConfidence:
		g.logger.Warn("classifier could not recognize food, using fallback",
			zap.Float64("confidence", out.Analysis.Confidence))
	case OutcomeFailure:
		g.logger.Warn("classifier error, using fallback", zap.Error(out.Err))
	}

	out = g.fallback.Classify(ctx, image, mimeType)
	if out.Kind == OutcomeFailure {
		return FoodAnalysis{}, ProviderGemini, out.Err
	}
	g.logger.Info("using fallback analysis",
		zap.String("food", out.Analysis.FoodName),
		zap.Float64("confidence", out.Analysis.Confidence))
	return out.Analysis, ProviderGemini, nil
}
