package bond

import "fmt"

// DataError reports malformed or inconsistent bond input. A DataError for
// one bond excludes that bond from a date's computation; it never aborts
// the date.
type DataError struct {
	BondID string
	Reason string
}

func (e *DataError) Error() string {
	if e.BondID == "" {
		return fmt.Sprintf("bond data: %s", e.Reason)
	}
	return fmt.Sprintf("bond %s: %s", e.BondID, e.Reason)
}

func dataErrorf(bondID, format string, args ...interface{}) *DataError {
	return &DataError{BondID: bondID, Reason: fmt.Sprintf(format, args...)}
}
