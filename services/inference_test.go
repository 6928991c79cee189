package services_test

import (
	"context"
	"errors"
	"testing"

	"foodvision-backend/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubPrimary struct {
	out   services.InferenceOutcome
	calls int
}

func (s *stubPrimary) Classify(_ context.Context, _ []byte, _ string) services.InferenceOutcome {
	s.calls++
	return s.out
}

type stubFallback struct {
	out   services.InferenceOutcome
	calls int
}

func (s *stubFallback) Classify(_ context.Context, _ []byte, _ string) services.InferenceOutcome {
	s.calls++
	return s.out
}

func confident(name string) services.FoodAnalysis {
	return services.FoodAnalysis{
		FoodName:   name,
		Confidence: 0.9,
		Nutrition:  services.NutritionSummary{Calories: 500, Protein: 20, Fat: 10, Carbs: 60},
	}
}

func TestGatePrimarySuccessSkipsFallback(t *testing.T) {
	primary := &stubPrimary{out: services.SuccessOutcome(confident("Phở bò"))}
	fallback := &stubFallback{out: services.SuccessOutcome(confident("never used"))}
	gate := services.NewConfidenceGate(primary, fallback, zap.NewNop())

	analysis, provider, err := gate.Resolve(context.Background(), []byte("img"), "pho.jpg", "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, services.ProviderClassifier, provider)
	assert.Equal(t, "Phở bò", analysis.FoodName)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, fallback.calls)
}

func TestGateLowConfidenceTriggersFallbackOnce(t *testing.T) {
	primary := &stubPrimary{out: services.LowConfidenceOutcome(services.FoodAnalysis{
		FoodName: services.UnrecognizedLabel,
	})}
	fallback := &stubFallback{out: services.SuccessOutcome(confident("Bún chả"))}
	gate := services.NewConfidenceGate(primary, fallback, zap.NewNop())

	analysis, provider, err := gate.Resolve(context.Background(), []byte("img"), "a.jpg", "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, services.ProviderGemini, provider)
	assert.Equal(t, "Bún chả", analysis.FoodName)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestGatePrimaryFailureTriggersFallback(t *testing.T) {
	primary := &stubPrimary{out: services.FailureOutcome(errors.New("connection refused"))}
	fallback := &stubFallback{out: services.SuccessOutcome(confident("Bánh mì"))}
	gate := services.NewConfidenceGate(primary, fallback, zap.NewNop())

	analysis, _, err := gate.Resolve(context.Background(), []byte("img"), "a.jpg", "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, "Bánh mì", analysis.FoodName)
	assert.Equal(t, 1, fallback.calls)
}

// A low-confidence fallback answer is terminal: there is no tertiary
// provider, so the unrecognized sentinel is surfaced to the caller.
func TestGateAcceptsLowConfidenceFallback(t *testing.T) {
	primary := &stubPrimary{out: services.FailureOutcome(errors.New("down"))}
	fallback := &stubFallback{out: services.LowConfidenceOutcome(services.FoodAnalysis{
		FoodName:   services.UnrecognizedLabel,
		Confidence: 0,
	})}
	gate := services.NewConfidenceGate(primary, fallback, zap.NewNop())

	analysis, provider, err := gate.Resolve(context.Background(), []byte("img"), "a.jpg", "image/jpeg")

	require.NoError(t, err)
	assert.Equal(t, services.ProviderGemini, provider)
	assert.Equal(t, services.UnrecognizedLabel, analysis.FoodName)
	assert.Zero(t, analysis.Confidence)
	assert.Equal(t, 1, fallback.calls)
}

func TestGateEscalatesFallbackFailure(t *testing.T) {
	primary := &stubPrimary{out: services.LowConfidenceOutcome(services.FoodAnalysis{})}
	fallback := &stubFallback{out: services.FailureOutcome(errors.New("quota exceeded"))}
	gate := services.NewConfidenceGate(primary, fallback, zap.NewNop())

	_, _, err := gate.Resolve(context.Background(), []byte("img"), "a.jpg", "image/jpeg")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}
