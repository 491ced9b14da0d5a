package validation

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayurmed/hms-api/internal/model"
)

func TestSlotFreq(t *testing.T) {
	require.NoError(t, Register())

	valid := []string{"1-0-1", "2-1-2", "1-1-1-1", "1", "Twice daily", "After meals", ""}
	for _, freq := range valid {
		m := model.Medicine{Frequency: freq}
		assert.NoError(t, binding.Validator.ValidateStruct(&m), "frequency %q should pass", freq)
	}

	invalid := []string{"1-0-", "-1-0", "1--0", "--", "1-0-1-1-1"}
	for _, freq := range invalid {
		m := model.Medicine{Frequency: freq}
		assert.Error(t, binding.Validator.ValidateStruct(&m), "frequency %q should fail", freq)
	}
}
