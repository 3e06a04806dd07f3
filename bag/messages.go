package bag

import (
	"database/sql"
	"fmt"
	"strings"
)

// Message is one raw record of a bag.
type Message struct {
	Connection Connection
	// Nanoseconds since the Unix epoch, as recorded.
	Timestamp int64
	// CDR payload, decompressed.
	Data []byte
}

// Messages iterates the records of a set of connections. It is forward-only;
// call Reader.Messages again to start over.
//
//	it, err := r.Messages(conns)
//	...
//	defer it.Close()
//	for it.Next() {
//		m := it.Message()
//	}
//	err = it.Err()
type Messages struct {
	r    *Reader
	want map[string]Connection
	file int
	rows *sql.Rows
	byID map[int64]Connection
	cur  Message
	err  error
}

// Messages returns an iterator over every record of conns, in timestamp
// order within each storage file and storage files in order.
func (r *Reader) Messages(conns []Connection) (*Messages, error) {
	if r.dbs == nil {
		return nil, fmt.Errorf("bag %s is closed", r.path)
	}
	want := make(map[string]Connection, len(conns))
	for _, c := range conns {
		want[connectionKey(c.Topic, c.MsgType)] = c
	}
	return &Messages{r: r, want: want}, nil
}

func (m *Messages) query(s *storageDB) (*sql.Rows, error) {
	m.byID = make(map[int64]Connection)
	var args []any
	for key, c := range m.want {
		if id, ok := s.topicIDs[key]; ok {
			m.byID[id] = c
			args = append(args, id)
		}
	}
	if len(args) == 0 {
		return nil, nil
	}
	q := "SELECT topic_id, timestamp, data FROM messages WHERE topic_id IN (?" +
		strings.Repeat(",?", len(args)-1) + ") ORDER BY timestamp, id"
	return s.db.Query(q, args...)
}

// Next advances to the next record. It returns false at the end or on error.
func (m *Messages) Next() bool {
	if m.err != nil {
		return false
	}
	for m.file < len(m.r.dbs) {
		if m.rows == nil {
			rows, err := m.query(m.r.dbs[m.file])
			if err != nil {
				m.err = fmt.Errorf("%s: %w", m.r.dbs[m.file].path, err)
				return false
			}
			if rows == nil {
				m.file++
				continue
			}
			m.rows = rows
		}
		if m.rows.Next() {
			var id int64
			var msg Message
			if err := m.rows.Scan(&id, &msg.Timestamp, &msg.Data); err != nil {
				m.err = err
				return false
			}
			msg.Connection = m.byID[id]
			if m.r.dec != nil {
				data, err := m.r.dec.DecodeAll(msg.Data, nil)
				if err != nil {
					m.err = fmt.Errorf("decompress %s record at %d: %w", msg.Connection.Topic, msg.Timestamp, err)
					return false
				}
				msg.Data = data
			}
			m.cur = msg
			return true
		}
		err := m.rows.Err()
		m.rows.Close()
		m.rows = nil
		if err != nil {
			m.err = err
			return false
		}
		m.file++
	}
	return false
}

// Message returns the record Next advanced to.
func (m *Messages) Message() Message {
	return m.cur
}

// Err returns the error that stopped iteration, if any.
func (m *Messages) Err() error {
	return m.err
}

func (m *Messages) Close() error {
	if m.rows == nil {
		return nil
	}
	err := m.rows.Close()
	m.rows = nil
	m.file = len(m.r.dbs)
	return err
}
