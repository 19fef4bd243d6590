package store

// StoreError wraps any data-store I/O or constraint failure with the
// operation that produced it. It is a server-side fault: logged with
// context, surfaced as a 500, never retried here.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
