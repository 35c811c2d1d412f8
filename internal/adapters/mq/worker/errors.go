package worker

import "errors"

// ErrDispatch marks a notification that could not be delivered after every
// retry. It never leaves the dispatcher except through logs and Deliver.
var ErrDispatch = errors.New("notification dispatch failed")
