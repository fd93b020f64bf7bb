package broker

import "errors"

// ErrNotConnectPacket is the AwaitingConnect state's "any other packet
// type" transition (spec.md §4.I): the connection is closed without a
// response.
var ErrNotConnectPacket = errors.New("first packet was not CONNECT")
