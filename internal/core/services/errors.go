package services

import (
	"errors"
	"fmt"
)

// classify wraps err with sentinel unless it already carries it.
func classify(sentinel, err error) error {
	if err == nil || errors.Is(err, sentinel) {
		return err
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}
