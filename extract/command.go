package extract

import (
	"fmt"
	"strconv"
	"time"

	"github.com/FuminoriSugawara/rosbag2-util/bag"
	"github.com/FuminoriSugawara/rosbag2-util/msgs"
	"github.com/FuminoriSugawara/rosbag2-util/table"
)

// DefaultCommandSuffix selects command topics.
const DefaultCommandSuffix = "/command"

// CommandHeader is timestamp, topic, command_1 .. command_n.
func CommandHeader(n int) []string {
	h := make([]string, 0, n+2)
	h = append(h, "timestamp", "topic")
	for i := 1; i <= n; i++ {
		h = append(h, "command_"+strconv.Itoa(i))
	}
	return h
}

// CommandRow flattens one command record logged at ts nanoseconds.
func CommandRow(topic string, ts int64, cmd msgs.Commander, loc *time.Location) []string {
	values := cmd.CommandValues()
	row := make([]string, 0, len(values)+2)
	row = append(row, FormatNanos(ts, loc), topic)
	for _, v := range values {
		row = append(row, FormatValue(v, cmd.ValueKind()))
	}
	return row
}

// probeCommandLen returns the array length of the first command record, or
// false if no record carries a data array.
func probeCommandLen(r *bag.Reader, conns []bag.Connection) (int, bool, error) {
	it, err := r.Messages(conns)
	if err != nil {
		return 0, false, err
	}
	defer it.Close()
	for it.Next() {
		m := it.Message()
		msg, err := msgs.Decode(m.Connection.MsgType, m.Data)
		if err != nil {
			continue
		}
		if cmd, ok := msg.(msgs.Commander); ok {
			return len(cmd.CommandValues()), true, nil
		}
	}
	return 0, false, it.Err()
}

// Commands writes every record of the topics ending in suffix to the table
// at output. The command columns are sized by the first record; records of
// another length are skipped.
func Commands(r *bag.Reader, output, suffix string, opts Options) (*Summary, error) {
	opts = opts.withDefaults()
	conns := r.Filter(bag.TopicSuffix(suffix))
	if len(conns) == 0 {
		return nil, &NoMatchingChannelsError{Bag: r.Path(), Match: suffix}
	}
	s := newSummary(output, conns)
	log := opts.Logger.With("run", s.RunID)
	log.Infow("found command topics", "topics", s.Topics)

	n, found, err := probeCommandLen(r, conns)
	if err != nil {
		return nil, err
	}
	if !found {
		log.Warnw("no record carries a data array")
	}
	header := CommandHeader(n)
	s.Columns = len(header)

	out, err := table.Create(opts.Fs, output, header)
	if err != nil {
		return nil, err
	}
	defer out.Close()

	err = visit(r, conns, s, log, func(m bag.Message, msg msgs.Message) error {
		cmd, ok := msg.(msgs.Commander)
		if !ok {
			s.Skipped++
			return nil
		}
		if got := len(cmd.CommandValues()); got != n {
			s.Skipped++
			log.Warnw("skipped record", "timestamp", m.Timestamp,
				"error", &SchemaMismatchError{Topic: m.Connection.Topic, Got: got, Want: n})
			return nil
		}
		return out.Write(CommandRow(m.Connection.Topic, m.Timestamp, cmd, opts.Location))
	})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.Path(), err)
	}
	if err := out.Commit(); err != nil {
		return nil, err
	}
	s.Rows = out.Rows()
	log.Infow("conversion complete", "output", output, "rows", s.Rows, "skipped", s.Skipped)
	return s, nil
}
