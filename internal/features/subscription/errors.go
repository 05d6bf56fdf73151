package subscription

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrAlreadySubscribed    = errors.New("already subscribed to this forum")
)

// Guard and advisory notices.
const (
	LogonNotice             = "You can't access subscriptions unless you are logged in."
	AlreadySubscribedNotice = "You are already subscribed to that forum."
)
