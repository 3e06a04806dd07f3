// Package msgs has the ROS2 message types read from bags and a registry that
// decodes CDR payloads into them.
package msgs

import (
	"fmt"
	"sort"

	"github.com/FuminoriSugawara/rosbag2-util/cdr"
)

// Message is a decoded record payload.
type Message interface {
	TypeName() string
}

// Commander is implemented by messages that carry a flat numeric data array.
type Commander interface {
	Message
	CommandValues() []float64
	ValueKind() Kind
}

// DecodeError reports a payload that could not be turned into a Message.
type DecodeError struct {
	Type string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type decodeFunc func(*cdr.Decoder) (Message, error)

var registry = map[string]decodeFunc{
	TypeJointState: decodeJointState,
}

func register(name string, fn decodeFunc) {
	registry[name] = fn
}

// Known returns the registered type names, sorted.
func Known() []string {
	names := make([]string, 0, len(registry))
	for k := range registry {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Decode turns the raw payload of a record of type msgtype into a Message.
func Decode(msgtype string, raw []byte) (Message, error) {
	fn, ok := registry[msgtype]
	if !ok {
		return nil, &DecodeError{Type: msgtype, Err: fmt.Errorf("unsupported message type")}
	}
	d, err := cdr.NewDecoder(raw)
	if err != nil {
		return nil, &DecodeError{Type: msgtype, Err: err}
	}
	msg, err := fn(d)
	if err != nil {
		return nil, &DecodeError{Type: msgtype, Err: err}
	}
	return msg, nil
}
