package post

import "errors"

var (
	ErrPostNotFound = errors.New("post not found")
)

// Guard notices shown when a request is turned away.
const (
	LogonNotice = "You can't add, modify, or delete posts before logon."
	OwnerNotice = "That's not your post, so you can't change it."
)
