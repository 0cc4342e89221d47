package pinger

import "errors"

var (
	ErrDuplicatePinger = errors.New("pinger already registered")
)
