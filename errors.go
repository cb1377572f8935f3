package vox

import "errors"

// ErrStreamClosed indicates Next was called on a closed stream.
var ErrStreamClosed = errors.New("stream closed")
