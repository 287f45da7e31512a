package fib

import "errors"

// ErrInvalidArgument indicates a negative index was requested.
var ErrInvalidArgument = errors.New("fib: invalid argument")
