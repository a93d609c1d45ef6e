package project

import "errors"

var (
	ErrNotFound   = errors.New("project: not found")
	ErrNameTaken  = errors.New("project: name already exists")
	ErrInvalidKey = errors.New("project: invalid api key")
)
