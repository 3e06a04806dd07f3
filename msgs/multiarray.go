package msgs

import (
	"fmt"

	"github.com/FuminoriSugawara/rosbag2-util/cdr"
)

// Kind is the element type of a MultiArray data field.
type Kind int

const (
	KindFloat64 Kind = iota
	KindFloat32
	KindInt
)

// MultiArrayDimension is std_msgs/msg/MultiArrayDimension.
type MultiArrayDimension struct {
	Label  string
	Size   uint32
	Stride uint32
}

// MultiArrayLayout is std_msgs/msg/MultiArrayLayout.
type MultiArrayLayout struct {
	Dim        []MultiArrayDimension
	DataOffset uint32
}

// MultiArray holds any of the std_msgs *MultiArray messages. Data is widened
// to float64; integers above 2^53 lose precision.
type MultiArray struct {
	Type   string
	Layout MultiArrayLayout
	Data   []float64
	Kind   Kind
}

func (m *MultiArray) TypeName() string { return m.Type }

func (m *MultiArray) CommandValues() []float64 { return m.Data }

func (m *MultiArray) ValueKind() Kind { return m.Kind }

type element struct {
	size int
	kind Kind
	read func(*cdr.Decoder) (float64, error)
	put  func(*cdr.Encoder, float64)
}

var elements = map[string]element{
	"Float64": {8, KindFloat64,
		func(d *cdr.Decoder) (float64, error) { return d.Float64() },
		func(e *cdr.Encoder, v float64) { e.Float64(v) }},
	"Float32": {4, KindFloat32,
		func(d *cdr.Decoder) (float64, error) { v, err := d.Float32(); return float64(v), err },
		func(e *cdr.Encoder, v float64) { e.Float32(float32(v)) }},
	"Int8": {1, KindInt,
		func(d *cdr.Decoder) (float64, error) { v, err := d.Int8(); return float64(v), err },
		func(e *cdr.Encoder, v float64) { e.Int8(int8(v)) }},
	"UInt8": {1, KindInt,
		func(d *cdr.Decoder) (float64, error) { v, err := d.Uint8(); return float64(v), err },
		func(e *cdr.Encoder, v float64) { e.Uint8(uint8(v)) }},
	"Int16": {2, KindInt,
		func(d *cdr.Decoder) (float64, error) { v, err := d.Int16(); return float64(v), err },
		func(e *cdr.Encoder, v float64) { e.Int16(int16(v)) }},
	"UInt16": {2, KindInt,
		func(d *cdr.Decoder) (float64, error) { v, err := d.Uint16(); return float64(v), err },
		func(e *cdr.Encoder, v float64) { e.Uint16(uint16(v)) }},
	"Int32": {4, KindInt,
		func(d *cdr.Decoder) (float64, error) { v, err := d.Int32(); return float64(v), err },
		func(e *cdr.Encoder, v float64) { e.Int32(int32(v)) }},
	"UInt32": {4, KindInt,
		func(d *cdr.Decoder) (float64, error) { v, err := d.Uint32(); return float64(v), err },
		func(e *cdr.Encoder, v float64) { e.Uint32(uint32(v)) }},
	"Int64": {8, KindInt,
		func(d *cdr.Decoder) (float64, error) { v, err := d.Int64(); return float64(v), err },
		func(e *cdr.Encoder, v float64) { e.Int64(int64(v)) }},
	"UInt64": {8, KindInt,
		func(d *cdr.Decoder) (float64, error) { v, err := d.Uint64(); return float64(v), err },
		func(e *cdr.Encoder, v float64) { e.Uint64(uint64(v)) }},
}

// MultiArrayType returns the ROS2 type name for an element name such as
// "Float64".
func MultiArrayType(elem string) string {
	return "std_msgs/msg/" + elem + "MultiArray"
}

func init() {
	for name, el := range elements {
		typ := MultiArrayType(name)
		el := el
		register(typ, func(d *cdr.Decoder) (Message, error) {
			return decodeMultiArray(d, typ, el)
		})
	}
}

func decodeLayout(d *cdr.Decoder) (MultiArrayLayout, error) {
	var l MultiArrayLayout
	// label + size + stride is at least 12 bytes.
	n, err := d.SequenceLen(12)
	if err != nil {
		return l, err
	}
	l.Dim = make([]MultiArrayDimension, n)
	for i := range l.Dim {
		if l.Dim[i].Label, err = d.String(); err != nil {
			return l, err
		}
		if l.Dim[i].Size, err = d.Uint32(); err != nil {
			return l, err
		}
		if l.Dim[i].Stride, err = d.Uint32(); err != nil {
			return l, err
		}
	}
	l.DataOffset, err = d.Uint32()
	return l, err
}

func decodeMultiArray(d *cdr.Decoder, typ string, el element) (Message, error) {
	layout, err := decodeLayout(d)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	n, err := d.SequenceLen(el.size)
	if err != nil {
		return nil, fmt.Errorf("data: %w", err)
	}
	data := make([]float64, n)
	for i := range data {
		if data[i], err = el.read(d); err != nil {
			return nil, fmt.Errorf("data[%d]: %w", i, err)
		}
	}
	return &MultiArray{Type: typ, Layout: layout, Data: data, Kind: el.kind}, nil
}

// Encode serializes m as a little-endian CDR payload. It panics if m.Type is
// not a registered MultiArray type.
func (m *MultiArray) Encode() []byte {
	var el element
	found := false
	for name, candidate := range elements {
		if MultiArrayType(name) == m.Type {
			el, found = candidate, true
			break
		}
	}
	if !found {
		panic(fmt.Sprintf("msgs: %q is not a MultiArray type", m.Type))
	}
	e := cdr.NewEncoder()
	e.Uint32(uint32(len(m.Layout.Dim)))
	for _, dim := range m.Layout.Dim {
		e.String(dim.Label)
		e.Uint32(dim.Size)
		e.Uint32(dim.Stride)
	}
	e.Uint32(m.Layout.DataOffset)
	e.Uint32(uint32(len(m.Data)))
	for _, v := range m.Data {
		el.put(e, v)
	}
	return e.Bytes()
}

// NewFloat64MultiArray is the usual command payload: a one-dimensional
// Float64MultiArray.
func NewFloat64MultiArray(data []float64) *MultiArray {
	return &MultiArray{
		Type: MultiArrayType("Float64"),
		Data: data,
		Kind: KindFloat64,
	}
}
