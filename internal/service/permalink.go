package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/Algorithm-Archetict/raqmiya-backend/internal/pkg/apperror"
)

const (
	permalinkMaxLen      = 64
	permalinkMaxAttempts = 10
)

// slugify приводит название продукта к виду permalink: строчные латинские
// буквы и цифры, остальное схлопывается в дефисы.
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z' || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
		if b.Len() >= permalinkMaxLen {
			break
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "product"
	}
	return slug
}

// uniquePermalink подбирает незанятый permalink на основе названия.
// Сначала пробует чистый slug, затем числовые суффиксы, в конце
// случайный токен.
func (s *DeliveryService) uniquePermalink(ctx context.Context, name string) (string, error) {
	base := slugify(name)

	candidate := base
	for i := 0; i < permalinkMaxAttempts; i++ {
		exists, err := s.products.PermalinkExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		if i < permalinkMaxAttempts-2 {
			candidate = fmt.Sprintf("%s-%d", base, i+2)
		} else {
			candidate = fmt.Sprintf("%s-%s", base, uuid.NewString()[:8])
		}
	}

	return "", apperror.New(apperror.ErrCodeConflict, "не удалось подобрать свободный permalink")
}
