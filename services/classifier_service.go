package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"
)

// ClassifierService talks to the locally hosted image classifier. One
// instance with one shared HTTP client is built at startup.
type ClassifierService struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewClassifierService(baseURL string, client *http.Client, logger *zap.Logger) *ClassifierService {
	return &ClassifierService{baseURL: baseURL, client: client, logger: logger}
}

type classifierResponse struct {
	PredictedLabel string              `json:"predicted_label"`
	Confidence     float64             `json:"confidence"`
	Nutrition      classifierNutrition `json:"nutrition"`
	Details        []classifierDetail  `json:"details"`
}

type classifierNutrition struct {
	Calories float64 `json:"calories"`
	Fat      float64 `json:"fat"`
	Carbs    float64 `json:"carbs"`
	Protein  float64 `json:"protein"`
}

type classifierDetail struct {
	Label      string  `json:"label"`
	Weight     float64 `json:"weight"`
	Confidence float64 `json:"confidence"`
	Cal        float64 `json:"cal"`
	Fat        float64 `json:"fat"`
	Carbs      float64 `json:"carbs"`
	Protein    float64 `json:"protein"`
}

// Classify sends the image as a single-file multipart upload to the
// classifier's /predict endpoint. It is one blocking call with no retry
// and no per-call deadline.
func (s *ClassifierService) Classify(ctx context.Context, image []byte, filename string) InferenceOutcome {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return FailureOutcome(fmt.Errorf("failed to build classifier form: %w", err))
	}
	if _, err := part.Write(image); err != nil {
		return FailureOutcome(fmt.Errorf("failed to write classifier form: %w", err))
	}
	if err := form.Close(); err != nil {
		return FailureOutcome(fmt.Errorf("failed to close classifier form: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/predict", &body)
	if err != nil {
		return FailureOutcome(fmt.Errorf("failed to create classifier request: %w", err))
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return FailureOutcome(fmt.Errorf("classifier connection error: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return FailureOutcome(fmt.Errorf("failed to read classifier response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return FailureOutcome(fmt.Errorf("classifier error %d: %s", resp.StatusCode, string(raw)))
	}

	var cr classifierResponse
	if err := json.Unmarshal(raw, &cr); err != nil {
		return FailureOutcome(fmt.Errorf("failed to parse classifier JSON: %w", err))
	}

	analysis := normalizeClassifier(cr)
	if isUnconfident(cr.PredictedLabel, cr.Confidence) {
		s.logger.Warn("classifier returned low-confidence result",
			zap.String("label", cr.PredictedLabel),
			zap.Float64("confidence", cr.Confidence))
		return LowConfidenceOutcome(analysis)
	}
	return SuccessOutcome(analysis)
}

// normalizeClassifier maps the classifier wire shape into the canonical
// nutrition model. Note the ingredient calorie field is "cal" on the wire.
func normalizeClassifier(cr classifierResponse) FoodAnalysis {
	analysis := FoodAnalysis{
		FoodName:   cr.PredictedLabel,
		Confidence: cr.Confidence,
		Nutrition: NutritionSummary{
			Calories: cr.Nutrition.Calories,
			Protein:  cr.Nutrition.Protein,
			Fat:      cr.Nutrition.Fat,
			Carbs:    cr.Nutrition.Carbs,
		},
	}
	for _, d := range cr.Details {
		analysis.Ingredients = append(analysis.Ingredients, IngredientDetail{
			Label:      d.Label,
			Weight:     d.Weight,
			Calories:   d.Cal,
			Protein:    d.Protein,
			Fat:        d.Fat,
			Carbs:      d.Carbs,
			Confidence: d.Confidence,
		})
	}
	return analysis
}
