package synth

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func TestRender_LengthAndRange(t *testing.T) {
	cases := []struct {
		freq float64
		dur  float64
		rate int
	}{
		{528, 1, 44100},
		{432, 2, 48000},
		{20, 0.5, 22050},
		{20000, 0.25, 48000},
		{7.83, 3, 8000},
	}
	for _, w := range []Waveform{Sine, Square, Triangle, Sawtooth} {
		for _, tc := range cases {
			buf, err := Render(tc.freq, w, tc.dur, tc.rate)
			require.NoError(t, err)
			assert.Len(t, buf, int(float64(tc.rate)*tc.dur), "%s %vHz", w, tc.freq)
			assert.LessOrEqual(t, floats.Max(buf), Headroom+1e-12, "%s %vHz", w, tc.freq)
			assert.GreaterOrEqual(t, floats.Min(buf), -Headroom-1e-12, "%s %vHz", w, tc.freq)
		}
	}
}

func TestRender_SineValues(t *testing.T) {
	buf, err := Render(1, Sine, 1, 4)
	require.NoError(t, err)
	require.Len(t, buf, 4)
	assert.InDelta(t, 0.0, buf[0], 1e-12)
	assert.InDelta(t, 0.8, buf[1], 1e-12)
	assert.InDelta(t, 0.0, buf[2], 1e-12)
	assert.InDelta(t, -0.8, buf[3], 1e-12)
}

func TestRender_SquareTieBreaksPositive(t *testing.T) {
	buf, err := Render(1, Square, 1, 4)
	require.NoError(t, err)
	// sin(0) == 0 resolves to +1.
	assert.Equal(t, Headroom, buf[0])
	assert.Equal(t, Headroom, buf[1])
	assert.Equal(t, -Headroom, buf[3])
}

func TestRender_TrianglePeaksAtHalfCycle(t *testing.T) {
	buf, err := Render(1, Triangle, 1, 4)
	require.NoError(t, err)
	assert.InDelta(t, -0.8, buf[0], 1e-12)
	assert.InDelta(t, 0.0, buf[1], 1e-12)
	assert.InDelta(t, 0.8, buf[2], 1e-12)
	assert.InDelta(t, 0.0, buf[3], 1e-12)
}

func TestRender_SawtoothRamp(t *testing.T) {
	buf, err := Render(1, Sawtooth, 1, 4)
	require.NoError(t, err)
	want := []float64{-0.8, -0.4, 0, 0.4}
	for i, v := range want {
		assert.InDelta(t, v, buf[i], 1e-12, "sample %d", i)
	}
}

func TestRender_SawtoothSeamOnFractionalCycles(t *testing.T) {
	// 1.5 cycles per buffer: the last sample sits mid-ramp instead of
	// approaching the top, so looping jumps.
	buf, err := Render(1.5, Sawtooth, 1, 1000)
	require.NoError(t, err)
	last := buf[len(buf)-1]
	first := buf[0]
	assert.Greater(t, math.Abs(last-first), 0.5)
}

func TestRender_InvalidInputs(t *testing.T) {
	_, err := Render(0, Sine, 1, 44100)
	require.ErrorIs(t, err, ErrInvalidFrequency)

	_, err = Render(-10, Sine, 1, 44100)
	require.ErrorIs(t, err, ErrInvalidFrequency)

	_, err = Render(440, Sine, 0, 44100)
	require.ErrorIs(t, err, ErrInvalidDuration)

	_, err = Render(440, Sine, 1, 0)
	require.ErrorIs(t, err, ErrInvalidSampleRate)

	_, err = Render(440, Waveform(9), 1, 44100)
	require.ErrorIs(t, err, ErrUnknownWaveform)

	_, err = Render(math.NaN(), Sine, 1, 44100)
	require.ErrorIs(t, err, ErrInvalidFrequency)
}

func TestParseWaveform(t *testing.T) {
	tests := []struct {
		in   string
		want Waveform
	}{
		{"sine", Sine},
		{"Square", Square},
		{" tri ", Triangle},
		{"saw", Sawtooth},
		{"SAWTOOTH", Sawtooth},
	}
	for _, tt := range tests {
		got, err := ParseWaveform(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseWaveform("noise")
	assert.ErrorIs(t, err, ErrUnknownWaveform)
}

func TestWaveformJSON(t *testing.T) {
	var layer struct {
		Waveform Waveform `json:"waveform"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"waveform":"triangle"}`), &layer))
	assert.Equal(t, Triangle, layer.Waveform)

	out, err := json.Marshal(layer)
	require.NoError(t, err)
	assert.JSONEq(t, `{"waveform":"triangle"}`, string(out))
}
