package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateMessageBody(t *testing.T) {
	assert.NoError(t, ValidateMessageBody("привет"))
	assert.Error(t, ValidateMessageBody(""))
	assert.Error(t, ValidateMessageBody("   "))
	assert.Error(t, ValidateMessageBody(strings.Repeat("a", MaxMessageLength+1)))
}

func TestValidateRequirements(t *testing.T) {
	assert.NoError(t, ValidateRequirements("нужен логотип для кофейни"))
	assert.Error(t, ValidateRequirements("коротко"))
	assert.Error(t, ValidateRequirements(strings.Repeat("a", MaxRequirementsLength+1)))
}

func TestValidateDeadlineReason(t *testing.T) {
	assert.NoError(t, ValidateDeadlineReason(nil))

	short := "нужно больше времени"
	assert.NoError(t, ValidateDeadlineReason(&short))

	long := strings.Repeat("a", MaxDeadlineReasonLength+1)
	assert.Error(t, ValidateDeadlineReason(&long))
}

func TestValidatePrice(t *testing.T) {
	assert.NoError(t, ValidatePrice(0))
	assert.NoError(t, ValidatePrice(99.99))
	assert.Error(t, ValidatePrice(-1))
	assert.Error(t, ValidatePrice(MaxPrice+1))
}

func TestNormalizeCurrency(t *testing.T) {
	assert.Equal(t, "EUR", NormalizeCurrency("eur", "USD"))
	assert.Equal(t, "USD", NormalizeCurrency("", "USD"))
	assert.Equal(t, "RUB", NormalizeCurrency("  rub ", "USD"))
}
