package forum

import "errors"

var (
	ErrForumNotFound = errors.New("forum not found")
)
