package domain

import "errors"

var (
	ErrPrecondition      = errors.New("precondition failed")
	ErrEncoding          = errors.New("encoding failed")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrRemoteService     = errors.New("remote service failure")
	ErrDecode            = errors.New("decode failed")
	ErrRender            = errors.New("render failed")
	ErrSuperseded        = errors.New("superseded by a newer submission")
	ErrNotFound          = errors.New("not found")
)
