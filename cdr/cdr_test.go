package cdr

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.Int32(-7)
	e.Uint32(42)
	e.String("base_link")
	e.Uint8(1)
	e.Float64(math.Pi) // aligned to 8 after the byte
	e.Strings([]string{"joint_2", "joint_1"})
	e.Float64s([]float64{9, 1})
	e.Float32(0.5)
	e.Int64(-1 << 40)

	d, err := NewDecoder(e.Bytes())
	require.NoError(t, err)

	i32, err := d.Int32()
	require.NoError(t, err)
	assert.Equal(t, int32(-7), i32)
	u32, err := d.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(42), u32)
	s, err := d.String()
	require.NoError(t, err)
	assert.Equal(t, "base_link", s)
	u8, err := d.Uint8()
	require.NoError(t, err)
	assert.Equal(t, uint8(1), u8)
	f64, err := d.Float64()
	require.NoError(t, err)
	assert.Equal(t, math.Pi, f64)
	names, err := d.Strings()
	require.NoError(t, err)
	assert.Equal(t, []string{"joint_2", "joint_1"}, names)
	vals, err := d.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 1}, vals)
	f32, err := d.Float32()
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), f32)
	i64, err := d.Int64()
	require.NoError(t, err)
	assert.Equal(t, int64(-1<<40), i64)
	assert.Equal(t, 0, d.Remaining())
}

func TestBigEndian(t *testing.T) {
	// CDR_BE header, uint32 1, then a float64 at body offset 8.
	raw := []byte{0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x01,
		0, 0, 0, 0,
		0x3f, 0xf0, 0, 0, 0, 0, 0, 0}
	d, err := NewDecoder(raw)
	require.NoError(t, err)
	n, err := d.Uint32()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), n)
	v, err := d.Float64()
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestMalformed(t *testing.T) {
	for _, tc := range []struct {
		name string
		raw  []byte
	}{
		{"empty", nil},
		{"short header", []byte{0, 1}},
		{"parameter list", []byte{0x00, 0x03, 0, 0, 1, 0, 0, 0}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewDecoder(tc.raw)
			assert.Error(t, err)
		})
	}
}

func TestTruncated(t *testing.T) {
	e := NewEncoder()
	e.Float64s([]float64{1, 2, 3})
	raw := e.Bytes()

	d, err := NewDecoder(raw[:len(raw)-4])
	require.NoError(t, err)
	_, err = d.Float64s()
	assert.True(t, errors.Is(err, ErrShort), "got %v", err)
}

func TestSequenceBound(t *testing.T) {
	e := NewEncoder()
	e.Uint32(1 << 30) // claims a billion strings
	d, err := NewDecoder(e.Bytes())
	require.NoError(t, err)
	_, err = d.Strings()
	assert.ErrorIs(t, err, ErrShort)
}
