package config

import (
	"bytes"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/NissanArmada/GazooRazoo/log"
)

func TestSetupLogger(t *testing.T) {
	prev := log.Default()
	t.Cleanup(func() {
		log.ResetDefault(prev)
		LogFormat, LogLevel, LogFilter = "", "", ""
	})

	buf := &bytes.Buffer{}
	LogFormat, LogLevel = "json", "debug"
	logger, err := SetupLogger(buf)
	assert.NilError(t, err)
	assert.Equal(t, logger, log.Default())
	logger.Named("ingest.chunk").Debug("chunk read")
	assert.Assert(t, is.Contains(buf.String(), `"logger":"ingest.chunk"`))

	buf.Reset()
	LogFilter = "*:* -debug:ingest.*"
	logger, err = SetupLogger(buf)
	assert.NilError(t, err)
	logger.Named("ingest.chunk").Debug("chunk read")
	logger.Named("pipeline").Debug("run started")
	assert.Assert(t, !bytes.Contains(buf.Bytes(), []byte("chunk read")))
	assert.Assert(t, is.Contains(buf.String(), "run started"))
}

func TestSetupLoggerInvalidFilter(t *testing.T) {
	prev := log.Default()
	t.Cleanup(func() {
		log.ResetDefault(prev)
		LogFilter = ""
	})
	LogFilter = "nope:*"
	_, err := SetupLogger(&bytes.Buffer{})
	assert.Assert(t, err != nil)
}
