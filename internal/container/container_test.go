package container

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-livestock-classifier/internal/config"
)

func validConfig() *config.Config {
	return &config.Config{
		Host:               "127.0.0.1",
		Port:               "8080",
		GinMode:            "test",
		RequestTimeout:     time.Second,
		MaxRequestBodySize: 1 << 20,
		AnalysisDelay:      10 * time.Millisecond,
		AutoAnalyze:        true,
		PreviewMaxWidth:    128,
		PreviewMaxPixels:   1 << 20,
		WorkerCount:        1,
		SessionSecret:      "0123456789abcdef0123456789abcdef",
		SessionIdleTimeout: time.Minute,
		CORSAllowedOrigins: []string{"*"},
	}
}

func TestNewContainer(t *testing.T) {
	c, err := NewContainer(validConfig())
	require.NoError(t, err)
	defer c.Close()

	assert.NotNil(t, c.Handler())
	assert.NotNil(t, c.Registry())
	assert.Equal(t, "8080", c.Config().Port)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewContainer_InvalidConfig(t *testing.T) {
	cfg := validConfig()
	cfg.PreviewMaxWidth = 0

	_, err := NewContainer(cfg)
	assert.Error(t, err)
}

func TestNewContainer_EmptySessionSecret(t *testing.T) {
	cfg := validConfig()
	cfg.SessionSecret = ""

	_, err := NewContainer(cfg)
	assert.Error(t, err)
}
