package msgs

import (
	"github.com/FuminoriSugawara/rosbag2-util/cdr"
)

const TypeJointState = "sensor_msgs/msg/JointState"

// Time is builtin_interfaces/msg/Time.
type Time struct {
	Sec     int32
	Nanosec uint32
}

// Seconds since the Unix epoch, as sec + nanosec*1e-9.
func (t Time) Seconds() float64 {
	return float64(t.Sec) + float64(t.Nanosec)*1e-9
}

// Header is std_msgs/msg/Header.
type Header struct {
	Stamp   Time
	FrameID string
}

// JointState is sensor_msgs/msg/JointState. Name, Position, Velocity and
// Effort are parallel arrays; Velocity and Effort may be empty.
type JointState struct {
	Header   Header
	Name     []string
	Position []float64
	Velocity []float64
	Effort   []float64
}

func (*JointState) TypeName() string { return TypeJointState }

func decodeHeader(d *cdr.Decoder) (Header, error) {
	var h Header
	var err error
	if h.Stamp.Sec, err = d.Int32(); err != nil {
		return h, err
	}
	if h.Stamp.Nanosec, err = d.Uint32(); err != nil {
		return h, err
	}
	h.FrameID, err = d.String()
	return h, err
}

func decodeJointState(d *cdr.Decoder) (Message, error) {
	var js JointState
	var err error
	if js.Header, err = decodeHeader(d); err != nil {
		return nil, err
	}
	if js.Name, err = d.Strings(); err != nil {
		return nil, err
	}
	if js.Position, err = d.Float64s(); err != nil {
		return nil, err
	}
	if js.Velocity, err = d.Float64s(); err != nil {
		return nil, err
	}
	if js.Effort, err = d.Float64s(); err != nil {
		return nil, err
	}
	return &js, nil
}

// Encode serializes js as a little-endian CDR payload.
func (js *JointState) Encode() []byte {
	e := cdr.NewEncoder()
	e.Int32(js.Header.Stamp.Sec)
	e.Uint32(js.Header.Stamp.Nanosec)
	e.String(js.Header.FrameID)
	e.Strings(js.Name)
	e.Float64s(js.Position)
	e.Float64s(js.Velocity)
	e.Float64s(js.Effort)
	return e.Bytes()
}
