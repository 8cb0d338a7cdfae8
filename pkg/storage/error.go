package storage

import (
	"errors"
	"strconv"
)

// ErrNotFound matches any NotFoundError via errors.Is.
var ErrNotFound = errors.New("record not found")

// NotFoundError is returned when a record id does not exist.
type NotFoundError struct {
	ID int64
}

func (e NotFoundError) Error() string {
	if e.ID == 0 {
		return ErrNotFound.Error()
	}
	return ErrNotFound.Error() + ": " + strconv.FormatInt(e.ID, 10)
}

func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
