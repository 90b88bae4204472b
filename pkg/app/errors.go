package app

import (
	"errors"
	"strings"
)

// AggregateErrors folds a slice of validation errors into one error,
// or nil when the slice holds none.
func AggregateErrors(errs []error) error {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	return errors.New(strings.Join(msgs, "; "))
}
