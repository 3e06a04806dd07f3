package bag

import "fmt"

// OpenError is returned by Open when path is missing or is not a readable
// rosbag2 directory.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open bag %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }
