package matrix

import "errors"

var (
	ErrIndexOutOfRange = errors.New("matrix: index out of range")
	ErrBadShape        = errors.New("matrix: non-positive dimension not allowed")
	ErrShapeMismatch   = errors.New("matrix: shapes do not match")
	ErrCountUnderflow  = errors.New("matrix: count would drop below zero")
)
