package monitoring

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got []string
	SetLogger(func(format string, v ...interface{}) {
		got = append(got, fmt.Sprintf(format, v...))
	})
	Logf("gear %d", 2)
	assert.Equal(t, []string{"gear 2"}, got)

	SetLogger(nil)
	Logf("dropped")
	assert.Len(t, got, 1, "nil logger must be a no-op")
}

func TestDebugfHonoursVerbose(t *testing.T) {
	original := Logf
	defer func() { Logf = original; SetVerbose(false) }()

	calls := 0
	SetLogger(func(string, ...interface{}) { calls++ })

	SetVerbose(false)
	Debugf("quiet")
	assert.Equal(t, 0, calls)

	SetVerbose(true)
	Debugf("loud")
	assert.Equal(t, 1, calls)
}

func TestComponentPrefix(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var line string
	SetLogger(func(format string, v ...interface{}) { line = fmt.Sprintf(format, v...) })

	Component("drivetrain")("shift %d->%d", 1, 2)
	assert.Equal(t, "[drivetrain] shift 1->2", line)
}
