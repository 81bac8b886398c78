package testutil

import (
	"context"
	"testing"
	"time"
)

// DefaultTimeout ограничивает тесты, работающие с контейнерами.
const DefaultTimeout = 30 * time.Second

// ContextWithTimeout создаёт context с timeout и автоматически отменяет его при завершении теста.
func ContextWithTimeout(t testing.TB, duration time.Duration) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	t.Cleanup(cancel)

	return ctx
}
