package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr error
	}{
		{
			name:    "default ok",
			cfg:     DefaultConfig(),
			wantErr: nil,
		},
		{
			name:    "file enabled without path",
			cfg:     &Config{EnableConsole: true, EnableFile: true},
			wantErr: ErrInvalidOutputPath,
		},
		{
			name:    "no output enabled",
			cfg:     &Config{},
			wantErr: ErrNoOutputEnabled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, InfoLevel, cfg.Level)
	assert.True(t, cfg.EnableConsole)
	assert.False(t, cfg.EnableFile)
	assert.Equal(t, RotationBySize, cfg.Rotation.Type)
}
