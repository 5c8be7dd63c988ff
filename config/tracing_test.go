package config

import (
	"testing"

	"github.com/bloomcare/bloom-waitlist/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOTLPEndpoint(t *testing.T) {
	tests := []struct {
		raw     string
		want    otlpTarget
		wantErr bool
	}{
		{raw: "http://collector:4318", want: otlpTarget{hostport: "collector:4318", path: "/v1/traces", insecure: true}},
		{raw: "https://otel.example.com/custom", want: otlpTarget{hostport: "otel.example.com", path: "/custom"}},
		{raw: "collector:4318", want: otlpTarget{hostport: "collector:4318", path: "/v1/traces", insecure: true}},
		{raw: "collector:4318/v1/traces", wantErr: true},
		{raw: "grpc://collector:4317", wantErr: true},
		{raw: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := parseOTLPEndpoint(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetupTracing_DisabledByDefault(t *testing.T) {
	t.Setenv("OTEL_TRACES_ENABLED", "false")

	shutdown, err := SetupTracing(log.NewDiscardLogger())
	require.NoError(t, err)
	assert.Nil(t, shutdown)
}

func TestSetupTracing_RejectsBadSampleRatio(t *testing.T) {
	t.Setenv("OTEL_TRACES_ENABLED", "true")
	t.Setenv("OTEL_TRACES_SAMPLE_RATIO", "1.5")

	_, err := SetupTracing(log.NewDiscardLogger())
	assert.ErrorContains(t, err, "OTEL_TRACES_SAMPLE_RATIO")
}
