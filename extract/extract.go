// Package extract flattens bag records into CSV tables: command arrays from
// topics ending in /command and joint states from /joint_states.
package extract

import (
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/FuminoriSugawara/rosbag2-util/bag"
	"github.com/FuminoriSugawara/rosbag2-util/msgs"
)

// Options are shared by both pipelines. The zero value writes to the OS
// file system in local time without logging.
type Options struct {
	Fs       afero.Fs
	Location *time.Location
	Logger   *zap.SugaredLogger
}

func (o Options) withDefaults() Options {
	if o.Fs == nil {
		o.Fs = afero.NewOsFs()
	}
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop().Sugar()
	}
	return o
}

// Summary describes one pipeline run.
type Summary struct {
	RunID   string
	Output  string
	Topics  []string
	Columns int
	// Records observed on the selected topics.
	Records int
	Rows    int
	Skipped int
}

func newSummary(output string, conns []bag.Connection) *Summary {
	return &Summary{RunID: uuid.NewString(), Output: output, Topics: bag.Topics(conns)}
}

// visit calls fn with every record of conns decoded. Records that fail to
// decode are logged and counted as skipped.
func visit(r *bag.Reader, conns []bag.Connection, s *Summary, log *zap.SugaredLogger, fn func(bag.Message, msgs.Message) error) error {
	it, err := r.Messages(conns)
	if err != nil {
		return err
	}
	defer it.Close()
	for it.Next() {
		m := it.Message()
		s.Records++
		msg, err := msgs.Decode(m.Connection.MsgType, m.Data)
		if err != nil {
			s.Skipped++
			log.Warnw("skipped record", "topic", m.Connection.Topic, "timestamp", m.Timestamp, "error", err)
			continue
		}
		if err := fn(m, msg); err != nil {
			return err
		}
	}
	return it.Err()
}
