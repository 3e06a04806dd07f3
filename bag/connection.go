package bag

import "strings"

// Connection is one recorded channel: a topic with its message type.
type Connection struct {
	ID                  int
	Topic               string
	MsgType             string
	SerializationFormat string
	OfferedQoSProfiles  string
	MessageCount        int64
}

// Predicate selects connections.
type Predicate func(Connection) bool

// TopicSuffix selects topics ending in suffix, e.g. "/command".
func TopicSuffix(suffix string) Predicate {
	return func(c Connection) bool { return strings.HasSuffix(c.Topic, suffix) }
}

// TopicEquals selects exactly one topic name, e.g. "/joint_states".
func TopicEquals(topic string) Predicate {
	return func(c Connection) bool { return c.Topic == topic }
}

// Topics returns the topic names of conns.
func Topics(conns []Connection) []string {
	out := make([]string, len(conns))
	for i, c := range conns {
		out[i] = c.Topic
	}
	return out
}

func connectionKey(topic, msgtype string) string {
	return topic + "\x00" + msgtype
}
