package cdr

import (
	"encoding/binary"
	"math"
)

// Encoder builds a little-endian CDR payload, header included.
type Encoder struct {
	body []byte
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

func (e *Encoder) align(n int) {
	for len(e.body)%n != 0 {
		e.body = append(e.body, 0)
	}
}

func (e *Encoder) Uint8(v uint8) { e.body = append(e.body, v) }

func (e *Encoder) Int8(v int8) { e.Uint8(uint8(v)) }

func (e *Encoder) Uint16(v uint16) {
	e.align(2)
	e.body = binary.LittleEndian.AppendUint16(e.body, v)
}

func (e *Encoder) Int16(v int16) { e.Uint16(uint16(v)) }

func (e *Encoder) Uint32(v uint32) {
	e.align(4)
	e.body = binary.LittleEndian.AppendUint32(e.body, v)
}

func (e *Encoder) Int32(v int32) { e.Uint32(uint32(v)) }

func (e *Encoder) Uint64(v uint64) {
	e.align(8)
	e.body = binary.LittleEndian.AppendUint64(e.body, v)
}

func (e *Encoder) Int64(v int64) { e.Uint64(uint64(v)) }

func (e *Encoder) Float32(v float32) { e.Uint32(math.Float32bits(v)) }

func (e *Encoder) Float64(v float64) { e.Uint64(math.Float64bits(v)) }

func (e *Encoder) String(s string) {
	e.Uint32(uint32(len(s) + 1))
	e.body = append(e.body, s...)
	e.body = append(e.body, 0)
}

func (e *Encoder) Float64s(vs []float64) {
	e.Uint32(uint32(len(vs)))
	for _, v := range vs {
		e.Float64(v)
	}
}

func (e *Encoder) Strings(ss []string) {
	e.Uint32(uint32(len(ss)))
	for _, s := range ss {
		e.String(s)
	}
}

// Bytes returns the encapsulated payload.
func (e *Encoder) Bytes() []byte {
	out := make([]byte, 0, HeaderLen+len(e.body))
	out = binary.BigEndian.AppendUint16(out, KindLE)
	out = append(out, 0, 0)
	return append(out, e.body...)
}
