package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestEchoZapLogger_Levels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewEchoZapLogger(zap.New(core))

	assert.Equal(t, log.INFO, l.Level())
	l.Debug("hidden")
	l.Infof("listening on %s", ":8080")
	l.Warnj(log.JSON{"slow": true})

	l.SetLevel(log.ERROR)
	l.Warn("hidden")
	l.Error("kept")

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)
	assert.Equal(t, "listening on :8080", entries[0].Message)
	assert.Equal(t, `{"slow":true}`, entries[1].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
}

func TestWithEchoLogger_RecoverLogsThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	e := echo.New()
	WithEchoLogger(e, zap.New(core))
	e.Use(middleware.Recover())
	e.GET("/boom", func(c echo.Context) error { panic("kaboom") })

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotEmpty(t, logs.FilterMessageSnippet("kaboom").All())
}
