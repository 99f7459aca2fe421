package domain

import "fmt"

// UnsupportedFormatError reports a file or alignment format that no parser accepts.
type UnsupportedFormatError struct {
	Format string
}

func (e UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %s", e.Format)
}
