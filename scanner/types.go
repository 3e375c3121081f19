package scanner

import "fmt"

// DirectoryReadError reports a directory that could not be listed. Discovery
// stops at the first one.
type DirectoryReadError struct {
	Dir string
	Err error
}

func (e *DirectoryReadError) Error() string {
	return fmt.Sprintf("error reading directory %s: %v", e.Dir, e.Err)
}

func (e *DirectoryReadError) Unwrap() error { return e.Err }

// Collision is a derivative path claimed by more than one source
type Collision struct {
	Output  string
	Sources []string
}
