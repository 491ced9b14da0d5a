package model

// RiskLevel is the three-value verdict of a hereditary risk analysis.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// ValidRiskLevel reports whether l is one of the enumerated levels.
func ValidRiskLevel(l RiskLevel) bool {
	switch l {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// FamilyHistoryItem is one entry of a patient's family medical history.
type FamilyHistoryItem struct {
	Relation   string `json:"relation" binding:"required,oneof=Father Mother Grandfather Grandmother Sibling"`
	Condition  string `json:"condition" binding:"required"`
	AgeOfOnset string `json:"age_of_onset,omitempty"`
}

// RiskPrediction is the ephemeral result of a risk analysis. It is
// rendered to the caller and never persisted.
type RiskPrediction struct {
	RiskLevel       RiskLevel `json:"risk_level"`
	Score           int       `json:"score"`
	Prediction      string    `json:"prediction"`
	Factors         []string  `json:"factors"`
	Recommendations []string  `json:"recommendations"`
}

type RiskAnalysisRequest struct {
	Age           int                 `json:"age" binding:"required,gt=0"`
	Gender        string              `json:"gender" binding:"required"`
	FamilyHistory []FamilyHistoryItem `json:"family_history" binding:"required,min=1,dive"`
}
