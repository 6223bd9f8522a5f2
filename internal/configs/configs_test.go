package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, 0, cfg.HistoryLimit)
	assert.Equal(t, 1024, cfg.EventQueueSize)
	assert.Equal(t, 256, cfg.WSSendBuffer)
	assert.Equal(t, int64(8192), cfg.WSMaxMessageBytes)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "8081")
	t.Setenv("ALLOWED_ORIGINS", " https://chat.example.com , ,https://www.example.com")
	t.Setenv("ROOM_HISTORY_LIMIT", "500")
	t.Setenv("SHUTDOWN_TIMEOUT", "12s")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, []string{"https://chat.example.com", "https://www.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, 500, cfg.HistoryLimit)
	assert.Equal(t, 12*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "port not a number", key: "PORT", value: "eighty"},
		{name: "privileged port", key: "PORT", value: "80"},
		{name: "negative history", key: "ROOM_HISTORY_LIMIT", value: "-1"},
		{name: "zero queue", key: "EVENT_QUEUE_SIZE", value: "0"},
		{name: "zero send buffer", key: "WS_SEND_BUFFER", value: "0"},
		{name: "tiny frames", key: "WS_MAX_MESSAGE_BYTES", value: "16"},
		{name: "bad duration", key: "SHUTDOWN_TIMEOUT", value: "soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
