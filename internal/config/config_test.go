package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	req := require.New(t)
	for _, key := range []string{"PORT", "LOG_LEVEL", "REPLY_DELAY", "MAX_MESSAGE_LENGTH", "SESSION_IDLE_TTL", "SESSION_SWEEP_SCHEDULE", "TELEGRAM_BOT_TOKEN", "ALLOWED_ORIGINS"} {
		unsetenv(t, key)
	}

	cfg, err := Load()
	req.NoError(err)
	req.Equal(":8080", cfg.Server.Addr)
	req.Equal([]string{"*"}, cfg.Server.AllowedOrigins)
	req.Equal(time.Second, cfg.Chat.ReplyDelay)
	req.Equal(2000, cfg.Chat.MaxMessageLength)
	req.Equal(30*time.Minute, cfg.Chat.SessionIdleTTL)
	req.Equal("@every 5m", cfg.Chat.SweepSchedule)
	req.Equal("info", cfg.LogLevel)
	req.False(cfg.Telegram.Enabled())
}

// unsetenv removes key for the duration of the test.
func unsetenv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadOverrides(t *testing.T) {
	req := require.New(t)
	t.Setenv("PORT", "127.0.0.1:9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("REPLY_DELAY", "250ms")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")

	cfg, err := Load()
	req.NoError(err)
	req.Equal("127.0.0.1:9090", cfg.Server.Addr)
	req.Equal("debug", cfg.LogLevel)
	req.Equal(250*time.Millisecond, cfg.Chat.ReplyDelay)
	req.Equal([]string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	req.True(cfg.Telegram.Enabled())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := map[string][2]string{
		"bad port":     {"PORT", "80 80"},
		"bad level":    {"LOG_LEVEL", "verbose"},
		"bad delay":    {"REPLY_DELAY", "soon"},
		"zero length":  {"MAX_MESSAGE_LENGTH", "0"},
		"negative ttl": {"SESSION_IDLE_TTL", "-1m"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestListenAddr(t *testing.T) {
	addr, err := listenAddr("3000")
	require.NoError(t, err)
	require.Equal(t, ":3000", addr)

	addr, err = listenAddr(":4000")
	require.NoError(t, err)
	require.Equal(t, ":4000", addr)
}
