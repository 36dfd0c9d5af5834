package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/logx"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, uint32(logx.DebugLevel), parseLevel("DEBUG"))
	require.Equal(t, uint32(logx.InfoLevel), parseLevel(" info "))
	require.Equal(t, uint32(logx.ErrorLevel), parseLevel("error"))
	require.Equal(t, uint32(logx.SevereLevel), parseLevel("fatal"))
	require.Equal(t, uint32(logx.InfoLevel), parseLevel("verbose"))
}

func TestToLogFields(t *testing.T) {
	require.Nil(t, toLogFields(nil))

	fields := toLogFields(Fields{"model": "m", "attempt": 2, "duration_ms": int64(5)})
	require.Len(t, fields, 3)
	require.Equal(t, "attempt", fields[0].Key)
	require.Equal(t, "duration_ms", fields[1].Key)
	require.Equal(t, "model", fields[2].Key)
	require.Equal(t, "m", fields[2].Value)
}

func TestLoggerDoesNotPanic(t *testing.T) {
	logger := NewLogger("error")
	ctx := context.Background()
	require.NotPanics(t, func() {
		logger.Debug(ctx, "debug", nil)
		logger.Info(ctx, "info", Fields{"k": "v"})
		logger.Warn(ctx, "warn", Fields{"k": 1})
		logger.Error(ctx, errors.New("failure"), Fields{"k": true})
	})
}
