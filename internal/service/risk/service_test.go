package risk

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayurmed/hms-api/internal/genai"
	"github.com/ayurmed/hms-api/internal/model"
	pkgerrors "github.com/ayurmed/hms-api/pkg/errors"
)

type mockGenerator struct {
	text string
	err  error

	gotPrompt string
}

func (m *mockGenerator) GenerateJSON(ctx context.Context, kind string, parts []genai.Part, schema json.RawMessage) (string, error) {
	if len(parts) > 0 {
		m.gotPrompt = parts[0].Text
	}
	return m.text, m.err
}

var history = []model.FamilyHistoryItem{
	{Relation: "Father", Condition: "Type 2 Diabetes", AgeOfOnset: "52"},
	{Relation: "Grandmother", Condition: "Hypertension"},
}

func TestAnalyzeValidVerdict(t *testing.T) {
	gen := &mockGenerator{text: `{
		"riskLevel": "MEDIUM",
		"score": 58,
		"prediction": "Elevated risk of Type 2 Diabetes",
		"factors": ["Paternal diabetes onset at 52"],
		"recommendations": ["Annual HbA1c screening"]
	}`}
	svc := NewService(gen)

	got, err := svc.Analyze(context.Background(), 45, "Male", history)
	require.NoError(t, err)
	assert.Equal(t, model.RiskMedium, got.RiskLevel)
	assert.Equal(t, 58, got.Score)
	assert.Len(t, got.Factors, 1)

	// The profile must be embedded in the prompt.
	assert.True(t, strings.Contains(gen.gotPrompt, "Age: 45"))
	assert.True(t, strings.Contains(gen.gotPrompt, "Type 2 Diabetes"))
}

func TestAnalyzeNormalizesNilSequences(t *testing.T) {
	gen := &mockGenerator{text: `{"riskLevel": "LOW", "score": 5, "prediction": "No significant hereditary risk"}`}
	svc := NewService(gen)

	got, err := svc.Analyze(context.Background(), 30, "Female", history)
	require.NoError(t, err)
	assert.NotNil(t, got.Factors)
	assert.NotNil(t, got.Recommendations)
	assert.Empty(t, got.Factors)
}

func TestAnalyzeRejectsBadVerdicts(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"score above range", `{"riskLevel": "HIGH", "score": 101, "prediction": "x", "factors": [], "recommendations": []}`},
		{"score below range", `{"riskLevel": "LOW", "score": -1, "prediction": "x", "factors": [], "recommendations": []}`},
		{"unknown level", `{"riskLevel": "SEVERE", "score": 50, "prediction": "x", "factors": [], "recommendations": []}`},
		{"missing level", `{"score": 50, "prediction": "x", "factors": [], "recommendations": []}`},
		{"not json", `oops`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(&mockGenerator{text: tt.text})
			_, err := svc.Analyze(context.Background(), 45, "Male", history)
			require.Error(t, err)
			assert.Equal(t, pkgerrors.ErrExtraction, pkgerrors.CodeOf(err))
		})
	}
}

func TestAnalyzeRejectsNonPositiveAge(t *testing.T) {
	svc := NewService(&mockGenerator{})
	_, err := svc.Analyze(context.Background(), 0, "Male", history)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ErrValidation, pkgerrors.CodeOf(err))
}
