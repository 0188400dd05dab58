package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/linemk/nirvana-shop/internal/lib/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	cases := []struct {
		env       string
		wantDebug bool
	}{
		{logger.EnvDev, true},
		{logger.EnvProd, false},
		{"staging", false},
	}
	for _, tc := range cases {
		t.Run(tc.env, func(t *testing.T) {
			var buf bytes.Buffer
			log := logger.New(tc.env, &buf)

			log.Debug("debug line")
			assert.Equal(t, tc.wantDebug, buf.Len() > 0)

			buf.Reset()
			log.Info("info line")
			var entry map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
			assert.Equal(t, "info line", entry["msg"])
			assert.Equal(t, "storefront", entry["service"])
		})
	}
}

func TestNew_LocalIsPretty(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.EnvLocal, &buf)

	log.With("op", "test").Debug("hello")
	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, `"op": "test"`)
	assert.False(t, json.Valid(buf.Bytes()))
}
