package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStageTimer(t *testing.T) {
	timer := NewStageTimer()

	time.Sleep(2 * time.Millisecond)
	d1 := timer.Mark("decode")
	d2 := timer.Mark("extract")

	stages := timer.Stages()
	require.Len(t, stages, 2)
	assert.Equal(t, "decode", stages[0].Name)
	assert.Equal(t, "extract", stages[1].Name)
	assert.Equal(t, d1, stages[0].Duration)
	assert.Equal(t, d2, stages[1].Duration)
	assert.GreaterOrEqual(t, d1, 2*time.Millisecond)
	assert.GreaterOrEqual(t, timer.Total(), d1+d2)
}

func TestStageTimerAttrs(t *testing.T) {
	timer := NewStageTimer()
	timer.Mark("decode")
	timer.Mark("encode")

	attrs := timer.Attrs()
	require.Len(t, attrs, 4)
	assert.Equal(t, "decode_ms", attrs[0])
	assert.Equal(t, "encode_ms", attrs[2])
}

func TestStageTimerString(t *testing.T) {
	timer := NewStageTimer()
	timer.Mark("fit")
	s := timer.String()
	assert.Contains(t, s, "fit=")
}
