package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigure_Level(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	l := WithComponent("varnames")
	l.Debug().Str("role", "web").Msg("role file missing")

	out := buf.String()
	assert.Contains(t, out, "role file missing")
	assert.Contains(t, out, "component=varnames")
	assert.Contains(t, out, "role=web")
}

func TestConfigure_DefaultLevelDropsDebug(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "nonsense", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	l := Base()
	l.Debug().Msg("hidden")
	l.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestLevelFromEnviron(t *testing.T) {
	assert.Equal(t, "debug", LevelFromEnviron([]string{"X=1", "ALCR_LOG_LEVEL=debug"}))
	assert.Equal(t, "", LevelFromEnviron([]string{"X=1"}))
}
