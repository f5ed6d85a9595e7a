package tracing

import (
	"context"
	"errors"
	"testing"
)

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(Config{ServiceName: "reeled-api", Enabled: false})
	if err != nil {
		t.Fatalf("expected no error for disabled tracing, got %v", err)
	}
	if provider.IsEnabled() {
		t.Error("expected tracing to be disabled")
	}
	if provider.Tracer("test") == nil {
		t.Error("expected a no-op tracer from a disabled provider")
	}
	if err := provider.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() on disabled provider returned %v", err)
	}
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name:    "missing service name",
			cfg:     Config{Enabled: true, SamplingRate: 0.1},
			wantErr: ErrMissingServiceName,
		},
		{
			name:    "negative sampling rate",
			cfg:     Config{ServiceName: "reeled-api", Enabled: true, SamplingRate: -0.1},
			wantErr: ErrInvalidSamplingRate,
		},
		{
			name:    "sampling rate above one",
			cfg:     Config{ServiceName: "reeled-api", Enabled: true, SamplingRate: 1.5},
			wantErr: ErrInvalidSamplingRate,
		},
		{
			name:    "unknown exporter",
			cfg:     Config{ServiceName: "reeled-api", Enabled: true, SamplingRate: 0.5, ExporterType: "zipkin"},
			wantErr: ErrUnsupportedExporter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewProvider() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewProvider_HTTPExporter(t *testing.T) {
	// Exporter construction does not dial; spans are only sent on flush.
	provider, err := NewProvider(Config{
		ServiceName:  "reeled-api",
		Enabled:      true,
		Environment:  "test",
		ExporterType: ExporterHTTP,
		OTLPEndpoint: "localhost:4318",
		SamplingRate: 1.0,
		InsecureMode: true,
	})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	if !provider.IsEnabled() {
		t.Error("expected tracing to be enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Shutdown with a cancelled context may report the flush failure; it must not hang.
	_ = provider.Shutdown(ctx)
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{0.0, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		if got := samplerFor(tt.rate).Description(); got != tt.want {
			t.Errorf("samplerFor(%v) = %q, want %q", tt.rate, got, tt.want)
		}
	}
}
