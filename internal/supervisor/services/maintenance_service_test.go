// Cinematch - Movie Similarity Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinematch

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type mockMaintainer struct {
	calls atomic.Int32
	err   error
}

func (m *mockMaintainer) Maintain(ctx context.Context) (int, error) {
	m.calls.Add(1)
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	return 2, m.err
}

func TestMaintenanceService_Ticks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{"successful passes", nil},
		{"failing passes keep running", errors.New("value log locked")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			target := &mockMaintainer{err: tt.err}
			svc := NewMaintenanceService(target, 10*time.Millisecond, zerolog.Nop())

			ctx, cancel := context.WithCancel(context.Background())
			errCh := make(chan error, 1)
			go func() { errCh <- svc.Serve(ctx) }()

			deadline := time.Now().Add(2 * time.Second)
			for target.calls.Load() < 3 {
				if time.Now().After(deadline) {
					t.Fatalf("Maintain called %d times, want at least 3", target.calls.Load())
				}
				time.Sleep(5 * time.Millisecond)
			}

			cancel()
			if err := <-errCh; !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() error = %v, want context.Canceled", err)
			}
		})
	}
}

func TestNewMaintenanceService_Defaults(t *testing.T) {
	t.Parallel()

	svc := NewMaintenanceService(&mockMaintainer{}, 0, zerolog.Nop())
	if svc.interval != 5*time.Minute {
		t.Errorf("interval = %v, want 5m", svc.interval)
	}
	if svc.String() != "cache-maintenance" {
		t.Errorf("String() = %q", svc.String())
	}
}
