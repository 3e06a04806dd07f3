// Package cdr decodes and encodes the OMG CDR (XCDR1) byte layout that ROS2
// uses to serialize messages in bag storage.
package cdr

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Encapsulation identifiers, first two bytes of every payload.
const (
	KindBE uint16 = 0x0000
	KindLE uint16 = 0x0001
)

// HeaderLen is the size of the encapsulation header preceding the body.
const HeaderLen = 4

var ErrShort = errors.New("cdr: payload truncated")

// Decoder reads primitives from a CDR payload. Alignment is measured from the
// end of the encapsulation header.
type Decoder struct {
	buf   []byte
	pos   int
	order binary.ByteOrder
}

func NewDecoder(raw []byte) (*Decoder, error) {
	if len(raw) < HeaderLen {
		return nil, fmt.Errorf("%w: %d byte header", ErrShort, len(raw))
	}
	var order binary.ByteOrder
	switch kind := binary.BigEndian.Uint16(raw[:2]); kind {
	case KindBE:
		order = binary.BigEndian
	case KindLE:
		order = binary.LittleEndian
	default:
		return nil, fmt.Errorf("cdr: unsupported encapsulation 0x%04x", kind)
	}
	return &Decoder{buf: raw[HeaderLen:], order: order}, nil
}

// Remaining reports the number of unread body bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

func (d *Decoder) align(n int) {
	if r := d.pos % n; r != 0 {
		d.pos += n - r
	}
}

func (d *Decoder) take(size int) ([]byte, error) {
	d.align(size)
	if d.pos+size > len(d.buf) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d of %d", ErrShort, size, d.pos, len(d.buf))
	}
	b := d.buf[d.pos : d.pos+size]
	d.pos += size
	return b, nil
}

func (d *Decoder) Uint8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) Int8() (int8, error) {
	v, err := d.Uint8()
	return int8(v), err
}

func (d *Decoder) Uint16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return d.order.Uint16(b), nil
}

func (d *Decoder) Int16() (int16, error) {
	v, err := d.Uint16()
	return int16(v), err
}

func (d *Decoder) Uint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return d.order.Uint32(b), nil
}

func (d *Decoder) Int32() (int32, error) {
	v, err := d.Uint32()
	return int32(v), err
}

func (d *Decoder) Uint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return d.order.Uint64(b), nil
}

func (d *Decoder) Int64() (int64, error) {
	v, err := d.Uint64()
	return int64(v), err
}

func (d *Decoder) Float32() (float32, error) {
	v, err := d.Uint32()
	return math.Float32frombits(v), err
}

func (d *Decoder) Float64() (float64, error) {
	v, err := d.Uint64()
	return math.Float64frombits(v), err
}

// String reads a length-prefixed string. The length includes the trailing NUL.
func (d *Decoder) String() (string, error) {
	n, err := d.Uint32()
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	if int(n) > d.Remaining() {
		return "", fmt.Errorf("%w: string of %d bytes, %d left", ErrShort, n, d.Remaining())
	}
	b := d.buf[d.pos : d.pos+int(n)]
	d.pos += int(n)
	if b[len(b)-1] == 0 {
		b = b[:len(b)-1]
	}
	return string(b), nil
}

// SequenceLen reads a sequence length and checks that count elements of
// elemSize bytes can fit in what is left of the payload.
func (d *Decoder) SequenceLen(elemSize int) (int, error) {
	n, err := d.Uint32()
	if err != nil {
		return 0, err
	}
	if elemSize < 1 {
		elemSize = 1
	}
	if uint64(n)*uint64(elemSize) > uint64(d.Remaining()) {
		return 0, fmt.Errorf("%w: sequence of %d x %d bytes, %d left", ErrShort, n, elemSize, d.Remaining())
	}
	return int(n), nil
}

func (d *Decoder) Float64s() ([]float64, error) {
	n, err := d.SequenceLen(8)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		if out[i], err = d.Float64(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *Decoder) Strings() ([]string, error) {
	// Each string costs at least its 4 byte length.
	n, err := d.SequenceLen(4)
	if err != nil {
		return nil, err
	}
	out := make([]string, n)
	for i := range out {
		if out[i], err = d.String(); err != nil {
			return nil, err
		}
	}
	return out, nil
}
