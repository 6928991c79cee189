package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// GeminiService is the fallback food analyzer. It sends the image inline
// (base64) with a fixed instruction and expects a JSON object embedded in
// the model's free-text answer. It never reports ingredient detail.
type GeminiService struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *zap.Logger
}

func NewGeminiService(endpoint, apiKey string, client *http.Client, logger *zap.Logger) *GeminiService {
	return &GeminiService{endpoint: endpoint, apiKey: apiKey, client: client, logger: logger}
}

const geminiPrompt = `Analyze this food image and provide nutritional information in JSON format.

Respond ONLY with valid JSON in this exact format, no other text:
{
    "foodName": "name of the food dish",
    "description": "brief description",
    "confidence": 0.85,
    "calories": 250,
    "protein": 15,
    "fat": 8,
    "carbs": 30,
    "servingSize": "100g"
}

If you cannot identify the food, use:
{
    "foodName": "unrecognized",
    "description": "cannot identify the food",
    "confidence": 0,
    "calories": 0,
    "protein": 0,
    "fat": 0,
    "carbs": 0,
    "servingSize": "unknown"
}

Be as accurate as possible with nutritional values for Vietnamese dishes.`

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type geminiAnalysis struct {
	FoodName    string  `json:"foodName"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	Calories    float64 `json:"calories"`
	Protein     float64 `json:"protein"`
	Fat         float64 `json:"fat"`
	Carbs       float64 `json:"carbs"`
	ServingSize string  `json:"servingSize"`
}

// Classify asks the generative provider for a nutrition assessment. A
// sentinel "unrecognized" answer is returned as low confidence, not as a
// failure: there is no further provider to fall back to.
func (s *GeminiService) Classify(ctx context.Context, image []byte, mimeType string) InferenceOutcome {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	payload := geminiRequest{
		Contents: []geminiContent{{
			Parts: []geminiPart{
				{Text: geminiPrompt},
				{InlineData: &geminiInlineData{
					MimeType: mimeType,
					Data:     base64.StdEncoding.EncodeToString(image),
				}},
			},
		}},
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return FailureOutcome(fmt.Errorf("failed to marshal gemini payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"?key="+s.apiKey, bytes.NewReader(b))
	if err != nil {
		return FailureOutcome(fmt.Errorf("failed to create gemini request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return FailureOutcome(fmt.Errorf("failed to call gemini API: %w", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return FailureOutcome(fmt.Errorf("failed to read gemini response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return FailureOutcome(fmt.Errorf("gemini API error %d: %s", resp.StatusCode, string(raw)))
	}

	var gr geminiResponse
	if err := json.Unmarshal(raw, &gr); err != nil {
		return FailureOutcome(fmt.Errorf("failed to parse gemini envelope: %w", err))
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return FailureOutcome(fmt.Errorf("no candidates in gemini response"))
	}

	// The model may wrap the JSON in explanatory prose; parse only the
	// first balanced object span.
	text := gr.Candidates[0].Content.Parts[0].Text
	span, ok := ExtractJSONObject(text)
	if !ok {
		return FailureOutcome(fmt.Errorf("no JSON object in gemini response text"))
	}

	var ga geminiAnalysis
	if err := json.Unmarshal([]byte(span), &ga); err != nil {
		return FailureOutcome(fmt.Errorf("failed to parse gemini analysis JSON: %w", err))
	}

	analysis := FoodAnalysis{
		FoodName:   ga.FoodName,
		Confidence: ga.Confidence,
		Nutrition: NutritionSummary{
			Calories: ga.Calories,
			Protein:  ga.Protein,
			Fat:      ga.Fat,
			Carbs:    ga.Carbs,
		},
		// no ingredient detail from this provider, ever
	}
	if isUnconfident(ga.FoodName, ga.Confidence) {
		s.logger.Warn("gemini could not identify food", zap.String("description", ga.Description))
		return LowConfidenceOutcome(analysis)
	}
	return SuccessOutcome(analysis)
}

// ExtractJSONObject returns the first balanced {...} span in s. Braces
// inside JSON strings (and escaped quotes inside those) do not count
// toward the balance.
func ExtractJSONObject(s string) (string, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if start == -1 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return s[start : i+1], true
				}
			}
		}
	}
	return "", false
}
