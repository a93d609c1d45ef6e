package bucket

import "errors"

var (
	ErrNotFound      = errors.New("bucket: not found")
	ErrAlreadyExists = errors.New("bucket: name already exists for this project")
	ErrNotEmpty      = errors.New("bucket: not empty")
	ErrProvision     = errors.New("bucket: failed to provision physical container")
)
