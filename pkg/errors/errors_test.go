package errors

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestAppError_IsMatchesByCode(t *testing.T) {
	sentinel := NewAppError(ErrAlreadyVerified, "payment already verified", nil)
	wrapped := fmt.Errorf("settle: %w", sentinel)

	assert.True(t, Is(wrapped, sentinel))
	assert.True(t, Is(NewAppError(ErrAlreadyVerified, "", nil), NewAppError(ErrAlreadyVerified, "", nil)))
	assert.False(t, Is(wrapped, NewAppError(ErrAlreadyDelivered, "payment already verified", nil)))
	assert.True(t, HasCode(wrapped, ErrAlreadyVerified))
	assert.False(t, HasCode(nil, ErrAlreadyVerified))
}

func TestAppError_MessageHidesCause(t *testing.T) {
	err := NewAppError(ErrInternal, "failed to load payment", New("connection reset"))
	assert.Equal(t, "failed to load payment: connection reset", err.Error())
	assert.Equal(t, "failed to load payment", err.Message())
	assert.Equal(t, ErrInternal, CodeOf(fmt.Errorf("outer: %w", err)))
	assert.Equal(t, ErrInternal, CodeOf(New("plain")))
}

func TestGetCodeMapping(t *testing.T) {
	tests := []struct {
		code   string
		status int
		grpc   codes.Code
	}{
		{ErrValidation, 400, codes.InvalidArgument},
		{ErrNotFound, 404, codes.NotFound},
		{ErrInvalidState, 409, codes.FailedPrecondition},
		{ErrLimitExceeded, 422, codes.FailedPrecondition},
		{ErrLedgerWriteFailure, 503, codes.Unavailable},
		{"SOMETHING_ELSE", 500, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, grpcCode := GetCodeMapping(tt.code)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.grpc, grpcCode)
		})
	}
}

func TestToGRPCError(t *testing.T) {
	assert.Nil(t, ToGRPCError(nil))

	st, ok := status.FromError(ToGRPCError(NewAppError(ErrNotFound, "payment not found", nil)))
	require.True(t, ok)
	assert.Equal(t, codes.NotFound, st.Code())

	existing := status.Error(codes.Unavailable, "down")
	assert.Equal(t, existing, ToGRPCError(existing))
}

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{
			name:   "app error",
			err:    NewAppError(ErrLimitExceeded, "refund exceeds payment", nil),
			status: http.StatusUnprocessableEntity,
			body:   `{"code":"LIMIT_EXCEEDED","error":"refund exceeds payment"}`,
		},
		{
			name:   "internal cause hidden",
			err:    NewAppError(ErrInternal, "failed to load payment", New("dial tcp: refused")),
			status: http.StatusInternalServerError,
			body:   `{"code":"INTERNAL","error":"failed to load payment"}`,
		},
		{
			name:   "echo error",
			err:    echo.NewHTTPError(http.StatusNotFound, "Not Found"),
			status: http.StatusNotFound,
			body:   `{"code":"NOT_FOUND","error":"Not Found"}`,
		},
		{
			name:   "plain error",
			err:    New("boom"),
			status: http.StatusInternalServerError,
			body:   `{"code":"INTERNAL","error":"Internal Server Error"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			require.NoError(t, WriteJSON(c, tt.err))
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestLogError_LevelFollowsStatus(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	LogError(logger, nil, "ignored")
	LogError(logger, NewAppError(ErrValidation, "bad amount", nil), "client")
	LogError(logger, NewAppError(ErrLedgerWriteFailure, "ledger busy", nil), "server")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.Equal(t, ErrValidation, entries[0].ContextMap()["error_code"])
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}
