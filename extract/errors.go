package extract

import "fmt"

// NoMatchingChannelsError is returned when a bag has no channel to extract.
type NoMatchingChannelsError struct {
	Bag   string
	Match string
}

func (e *NoMatchingChannelsError) Error() string {
	return fmt.Sprintf("no %s topics found in %s", e.Match, e.Bag)
}

// MissingJointError reports a joint-state record that lacks a requested
// joint, or whose Field array is too short to hold it.
type MissingJointError struct {
	Joint string
	Field string
}

func (e *MissingJointError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("joint %s not in record", e.Joint)
	}
	return fmt.Sprintf("joint %s has no %s", e.Joint, e.Field)
}

// SchemaMismatchError reports a command array whose length differs from
// the table's command columns.
type SchemaMismatchError struct {
	Topic string
	Got   int
	Want  int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s: %d command values, want %d", e.Topic, e.Got, e.Want)
}
