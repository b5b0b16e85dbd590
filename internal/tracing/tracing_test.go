package tracing

import (
	"context"
	"testing"

	"github.com/abhisek/adaptiq/internal/logger"
)

func TestInitDisabledIsNoop(t *testing.T) {
	shutdown := Init(context.Background(), logger.Nop(), Config{})
	if shutdown == nil {
		t.Fatal("shutdown must not be nil")
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestClampRatio(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 1},
		{-2, 1},
		{0.25, 0.25},
		{3, 1},
	}
	for _, tt := range tests {
		if got := clampRatio(tt.in); got != tt.want {
			t.Errorf("clampRatio(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
