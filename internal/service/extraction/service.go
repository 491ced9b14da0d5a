// Package extraction turns a prescription image into a structured
// medicine/diagnosis bundle through a generative model call with a
// fixed output schema.
package extraction

import (
	"context"
	"encoding/json"

	"github.com/ayurmed/hms-api/internal/genai"
	"github.com/ayurmed/hms-api/internal/model"
	"github.com/ayurmed/hms-api/pkg/errors"
)

const prompt = `You are an expert medical transcriptionist for Indian prescriptions.
Analyze this image of a prescription (handwritten or printed).
Extract the following strictly in JSON format:
1. List of medicines with name, dosage (e.g. 500mg), frequency (e.g. 1-0-1 or Twice daily), duration (e.g. 5 days), and specific instructions (e.g. after food).
2. Any diagnosis mentioned.
3. Any additional doctor notes.

If a field is illegible, make a best guess or leave it empty string.`

// responseSchema pins the model to the five-string-field medicine shape.
var responseSchema = json.RawMessage(`{
	"type": "OBJECT",
	"properties": {
		"medicines": {
			"type": "ARRAY",
			"items": {
				"type": "OBJECT",
				"properties": {
					"name": {"type": "STRING"},
					"dosage": {"type": "STRING"},
					"frequency": {"type": "STRING"},
					"duration": {"type": "STRING"},
					"instructions": {"type": "STRING"}
				},
				"required": ["name", "dosage", "frequency", "duration", "instructions"]
			}
		},
		"diagnosis": {"type": "STRING"},
		"notes": {"type": "STRING"}
	},
	"required": ["medicines", "diagnosis", "notes"]
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

// Pointer-fielded wire shapes so an omitted or null field is
// distinguishable from an empty string. The contract demands empty
// strings for unknowns, never null/omitted; anything else is rejected.
type wireMedicine struct {
	Name         *string `json:"name"`
	Dosage       *string `json:"dosage"`
	Frequency    *string `json:"frequency"`
	Duration     *string `json:"duration"`
	Instructions *string `json:"instructions"`
}

type wireResult struct {
	Medicines []wireMedicine `json:"medicines"`
	Diagnosis *string        `json:"diagnosis"`
	Notes     *string        `json:"notes"`
}

// Parse sends the image to the model and returns the extracted bundle.
// Any transport, parse or schema failure surfaces as an extraction
// failure; no partial or corrupt data is ever returned.
func (s *Service) Parse(ctx context.Context, imageBase64, mimeType string) (*model.ExtractionResult, error) {
	parts := []genai.Part{
		{InlineData: &genai.InlineData{MIMEType: mimeType, Data: imageBase64}},
		{Text: prompt},
	}

	text, err := s.gen.GenerateJSON(ctx, genai.KindExtraction, parts, responseSchema)
	if err != nil {
		if errors.CodeOf(err) == errors.ErrConfiguration {
			return nil, err
		}
		return nil, errors.Extraction("failed to parse prescription", err)
	}

	var wire wireResult
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return nil, errors.Extraction("model response is not valid JSON", err)
	}

	result := &model.ExtractionResult{Medicines: make([]model.Medicine, 0, len(wire.Medicines))}
	for _, m := range wire.Medicines {
		if m.Name == nil || m.Dosage == nil || m.Frequency == nil || m.Duration == nil || m.Instructions == nil {
			return nil, errors.Extraction("model response omits a required medicine field", nil)
		}
		result.Medicines = append(result.Medicines, model.Medicine{
			Name:         *m.Name,
			Dosage:       *m.Dosage,
			Frequency:    *m.Frequency,
			Duration:     *m.Duration,
			Instructions: *m.Instructions,
		})
	}
	if wire.Diagnosis != nil {
		result.Diagnosis = *wire.Diagnosis
	}
	if wire.Notes != nil {
		result.Notes = *wire.Notes
	}
	return result, nil
}
