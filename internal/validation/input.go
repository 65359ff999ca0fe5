package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinMessageLength            = 1
	MaxMessageLength            = 5000
	MinRequirementsLength       = 10
	MaxRequirementsLength       = 5000
	MaxDeadlineReasonLength     = 1000
	MinProductNameLength        = 3
	MaxProductNameLength        = 200
	MaxProductDescriptionLength = 5000
	MinPrice                    = 0.0
	MaxPrice                    = 100000000.0 // 100 миллионов
	MaxCurrencyLength           = 3
)

// ValidateMessageBody проверяет текст сообщения.
func ValidateMessageBody(body string) error {
	trimmed := strings.TrimSpace(body)
	length := utf8.RuneCountInString(trimmed)
	if length < MinMessageLength {
		return fmt.Errorf("сообщение не может быть пустым")
	}
	if length > MaxMessageLength {
		return fmt.Errorf("сообщение не может быть длиннее %d символов", MaxMessageLength)
	}
	return nil
}

// ValidateRequirements проверяет описание требований заявки.
func ValidateRequirements(requirements string) error {
	trimmed := strings.TrimSpace(requirements)
	length := utf8.RuneCountInString(trimmed)
	if length < MinRequirementsLength {
		return fmt.Errorf("требования должны содержать не менее %d символов", MinRequirementsLength)
	}
	if length > MaxRequirementsLength {
		return fmt.Errorf("требования не могут быть длиннее %d символов", MaxRequirementsLength)
	}
	return nil
}

// ValidateDeadlineReason проверяет причину переноса дедлайна (опциональна).
func ValidateDeadlineReason(reason *string) error {
	if reason == nil {
		return nil
	}
	if utf8.RuneCountInString(*reason) > MaxDeadlineReasonLength {
		return fmt.Errorf("причина не может быть длиннее %d символов", MaxDeadlineReasonLength)
	}
	return nil
}

// ValidateProductName проверяет название продукта.
func ValidateProductName(name string) error {
	trimmed := strings.TrimSpace(name)
	length := utf8.RuneCountInString(trimmed)
	if length < MinProductNameLength {
		return fmt.Errorf("название продукта должно содержать не менее %d символов", MinProductNameLength)
	}
	if length > MaxProductNameLength {
		return fmt.Errorf("название продукта не может быть длиннее %d символов", MaxProductNameLength)
	}
	return nil
}

// ValidatePrice проверяет цену продукта или бюджет заявки.
func ValidatePrice(price float64) error {
	if price < MinPrice {
		return fmt.Errorf("цена не может быть отрицательной")
	}
	if price > MaxPrice {
		return fmt.Errorf("цена не может превышать %.0f", MaxPrice)
	}
	return nil
}

// NormalizeCurrency приводит код валюты к верхнему регистру и подставляет
// дефолт для пустого значения.
func NormalizeCurrency(currency, fallback string) string {
	trimmed := strings.ToUpper(strings.TrimSpace(currency))
	if trimmed == "" {
		return fallback
	}
	return trimmed
}
