package file

import "errors"

var (
	ErrNotFound = errors.New("file: not found")
	ErrExists   = errors.New("file: record already exists")
)
