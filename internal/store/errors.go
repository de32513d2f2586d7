package store

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrInUse           = errors.New("record is referenced by appointments")
	ErrBrokenReference = errors.New("referenced record does not exist")
)
