package extract

import (
	"fmt"

	"github.com/FuminoriSugawara/rosbag2-util/bag"
	"github.com/FuminoriSugawara/rosbag2-util/msgs"
	"github.com/FuminoriSugawara/rosbag2-util/table"
)

// DefaultJointTopic carries sensor_msgs/msg/JointState.
const DefaultJointTopic = "/joint_states"

// DefaultJoints returns joint_1 .. joint_7.
func DefaultJoints() []string {
	joints := make([]string, 7)
	for i := range joints {
		joints[i] = fmt.Sprintf("joint_%d", i+1)
	}
	return joints
}

// JointStateHeader is timestamp followed by <joint>_pos, <joint>_vel and
// <joint>_effort for each joint in order.
func JointStateHeader(joints []string) []string {
	h := make([]string, 0, 1+3*len(joints))
	h = append(h, "timestamp")
	for _, j := range joints {
		h = append(h, j+"_pos", j+"_vel", j+"_effort")
	}
	return h
}

// IndexMap maps each name to its index in names. A repeated name maps to
// its last index.
func IndexMap(names []string) map[string]int {
	m := make(map[string]int, len(names))
	for i, n := range names {
		m[n] = i
	}
	return m
}

func at(values []float64, i int, joint, field string) (string, error) {
	if i >= len(values) {
		return "", &MissingJointError{Joint: joint, Field: field}
	}
	return FormatValue(values[i], msgs.KindFloat64), nil
}

// JointStateRow flattens js into the columns of JointStateHeader(joints),
// stamped with the record's header time. The arrays of js may list joints
// in any order.
func JointStateRow(js *msgs.JointState, joints []string, opts Options) ([]string, error) {
	opts = opts.withDefaults()
	index := IndexMap(js.Name)
	row := make([]string, 0, 1+3*len(joints))
	row = append(row, FormatSeconds(js.Header.Stamp.Seconds(), opts.Location))
	for _, j := range joints {
		i, ok := index[j]
		if !ok {
			return nil, &MissingJointError{Joint: j}
		}
		pos, err := at(js.Position, i, j, "position")
		if err != nil {
			return nil, err
		}
		vel, err := at(js.Velocity, i, j, "velocity")
		if err != nil {
			return nil, err
		}
		effort, err := at(js.Effort, i, j, "effort")
		if err != nil {
			return nil, err
		}
		row = append(row, pos, vel, effort)
	}
	return row, nil
}

// JointStates writes every joint-state record on topic to the table at
// output. Records missing one of joints are skipped.
func JointStates(r *bag.Reader, output, topic string, joints []string, opts Options) (*Summary, error) {
	opts = opts.withDefaults()
	if len(joints) == 0 {
		return nil, fmt.Errorf("no joints requested")
	}
	conns := r.Filter(bag.TopicEquals(topic))
	if len(conns) == 0 {
		return nil, &NoMatchingChannelsError{Bag: r.Path(), Match: topic}
	}
	s := newSummary(output, conns)
	log := opts.Logger.With("run", s.RunID)
	log.Infow("converting joint states", "bag", r.Path(), "output", output, "joints", joints)

	header := JointStateHeader(joints)
	s.Columns = len(header)
	out, err := table.Create(opts.Fs, output, header)
	if err != nil {
		return nil, err
	}
	defer out.Close()

	err = visit(r, conns, s, log, func(m bag.Message, msg msgs.Message) error {
		js, ok := msg.(*msgs.JointState)
		if !ok {
			s.Skipped++
			log.Warnw("skipped record", "timestamp", m.Timestamp,
				"error", &msgs.DecodeError{Type: m.Connection.MsgType, Err: fmt.Errorf("not a joint state")})
			return nil
		}
		row, err := JointStateRow(js, joints, opts)
		if err != nil {
			s.Skipped++
			log.Warnw("skipped record", "timestamp", m.Timestamp, "error", err)
			return nil
		}
		return out.Write(row)
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.Path(), err)
	}
	if err := out.Commit(); err != nil {
		return nil, err
	}
	s.Rows = out.Rows()
	log.Infow("conversion complete", "rows", s.Rows, "skipped", s.Skipped)
	return s, nil
}
