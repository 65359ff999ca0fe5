package goroutine

import (
	"context"
	"runtime/debug"

	"github.com/Algorithm-Archetict/raqmiya-backend/internal/logger"
)

// SafeGo запускает горутину с обработкой panic. Используется для
// побочных эффектов (broadcast, уведомления), которые не должны
// убить процесс или повлиять на основной результат операции.
func SafeGo(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("panic in goroutine: %v\nstack trace:\n%s", r, debug.Stack())
			}
		}()
		fn()
	}()
}

// SafeGoWithContext запускает горутину с контекстом и обработкой panic.
func SafeGoWithContext(ctx context.Context, fn func(context.Context)) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("panic in goroutine (with context): %v\nstack trace:\n%s", r, debug.Stack())
			}
		}()
		fn(ctx)
	}()
}
