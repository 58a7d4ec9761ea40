package protocol

import "errors"

var (
	ErrPayloadTooLarge = errors.New("payload exceeds maximum capacity")
	ErrEmptyPayload    = errors.New("payload cannot be empty")
	ErrInvalidHeader   = errors.New("invalid header field")
	ErrMalformedPacket = errors.New("malformed packet")
	ErrMalformedLength = errors.New("declared payload length exceeds buffer")
	ErrAuthentication  = errors.New("packet authentication failed")
	ErrTooManyPeers    = errors.New("link report holds too many peers")
	ErrMalformedReport = errors.New("malformed link report")
)
