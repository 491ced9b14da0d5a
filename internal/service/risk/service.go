// Package risk scores hereditary disease risk from a structured health
// profile. The call is stateless and query-only; results are rendered
// to the caller and never persisted.
package risk

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ayurmed/hms-api/internal/genai"
	"github.com/ayurmed/hms-api/internal/model"
	"github.com/ayurmed/hms-api/pkg/errors"
)

var responseSchema = json.RawMessage(`{
	"type": "OBJECT",
	"properties": {
		"riskLevel": {"type": "STRING", "enum": ["LOW", "MEDIUM", "HIGH"]},
		"score": {"type": "NUMBER", "description": "Risk score from 0 to 100"},
		"prediction": {"type": "STRING", "description": "Main predicted condition or summary"},
		"factors": {"type": "ARRAY", "items": {"type": "STRING"}, "description": "List of contributing factors from history"},
		"recommendations": {"type": "ARRAY", "items": {"type": "STRING"}, "description": "List of screening or lifestyle recommendations"}
	},
	"required": ["riskLevel", "score", "prediction", "factors", "recommendations"]
}`)

// Generator is the single generative-model call the service depends on.
type Generator interface {
	GenerateJSON(ctx context.Context, kind string, parts []genai.Part, schema json.RawMessage) (string, error)
}

type Service struct {
	gen Generator
}

func NewService(gen Generator) *Service {
	return &Service{gen: gen}
}

type wirePrediction struct {
	RiskLevel       *string  `json:"riskLevel"`
	Score           *float64 `json:"score"`
	Prediction      *string  `json:"prediction"`
	Factors         []string `json:"factors"`
	Recommendations []string `json:"recommendations"`
}

// Analyze sends the profile to the model and validates the verdict
// against the fixed schema: three-value risk level, score in [0,100].
func (s *Service) Analyze(ctx context.Context, age int, gender string, history []model.FamilyHistoryItem) (*model.RiskPrediction, error) {
	if age <= 0 {
		return nil, errors.Validation("age must be a positive integer", nil)
	}

	historyJSON, err := json.Marshal(history)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal family history: %w", err)
	}

	prompt := fmt.Sprintf(`Analyze the health risks for a patient with the following profile:
Age: %d
Gender: %s
Family Medical History: %s

Based on Indian genetic patterns and general medical knowledge, predict potential hereditary disease risks.
Return a strict JSON object.`, age, gender, historyJSON)

	text, err := s.gen.GenerateJSON(ctx, genai.KindRisk, []genai.Part{{Text: prompt}}, responseSchema)
	if err != nil {
		if errors.CodeOf(err) == errors.ErrConfiguration {
			return nil, err
		}
		return nil, errors.Extraction("failed to analyze risk", err)
	}

	var wire wirePrediction
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return nil, errors.Extraction("model response is not valid JSON", err)
	}
	if wire.RiskLevel == nil || wire.Score == nil || wire.Prediction == nil {
		return nil, errors.Extraction("model response omits a required field", nil)
	}

	level := model.RiskLevel(*wire.RiskLevel)
	if !model.ValidRiskLevel(level) {
		return nil, errors.Extraction(fmt.Sprintf("model returned unknown risk level %q", *wire.RiskLevel), nil)
	}
	score := int(*wire.Score)
	if *wire.Score < 0 || *wire.Score > 100 {
		return nil, errors.Extraction(fmt.Sprintf("model returned score %v outside [0,100]", *wire.Score), nil)
	}

	prediction := &model.RiskPrediction{
		RiskLevel:       level,
		Score:           score,
		Prediction:      *wire.Prediction,
		Factors:         wire.Factors,
		Recommendations: wire.Recommendations,
	}
	if prediction.Factors == nil {
		prediction.Factors = []string{}
	}
	if prediction.Recommendations == nil {
		prediction.Recommendations = []string{}
	}
	return prediction, nil
}
