package wire

import "errors"

// Wire-format errors (spec.md §7).
var (
	ErrMalformedRemainingLen = errors.New("malformed remaining length")
	ErrUnexpectedEOF         = errors.New("unexpected end of input")
	ErrMalformedUTF8Str      = errors.New("malformed utf-8 string")
	ErrStrTooLong            = errors.New("string exceeds 65535 bytes")
	ErrInvalidFixedHeaderFlags = errors.New("invalid fixed header flags")
	ErrInvalidControlPacketType = errors.New("invalid control packet type")
	ErrInvalidQosLv          = errors.New("invalid qos level")
	ErrBufferTooSmall        = errors.New("buffer too small")

	// Protocol errors.
	ErrInvalidProtocol            = errors.New("invalid protocol name")
	ErrUnacceptableProtocolLv     = errors.New("unacceptable protocol level")
	ErrIDRejected                 = errors.New("client identifier rejected")
	ErrSubscribeMissingTopicFilters = errors.New("subscribe packet has no topic filters")
	ErrSubscribeInvalidRequestedQos = errors.New("subscribe requested qos has reserved bits set")

	// Packet types the encoder or the decoder does not handle.
	ErrUnimplementedPkt     = errors.New("packet type not implemented by this encoder")
	ErrUnimplementedPktType = errors.New("packet type not implemented by this decoder")
)
