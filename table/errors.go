package table

import "fmt"

// MissingInputFileError is returned by Load when the table does not exist.
type MissingInputFileError struct {
	Path string
	Err  error
}

func (e *MissingInputFileError) Error() string {
	return fmt.Sprintf("input file %s not found", e.Path)
}

func (e *MissingInputFileError) Unwrap() error { return e.Err }

// EmptyInputError is returned by Load for a table without a header line.
type EmptyInputError struct {
	Path string
}

func (e *EmptyInputError) Error() string {
	return fmt.Sprintf("input file %s is empty", e.Path)
}

// MissingColumnError names a column a table lacks.
type MissingColumnError struct {
	Path   string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: missing column %s", e.Path, e.Column)
}
