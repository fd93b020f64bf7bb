package wire

import (
	"bufio"
	"io"
)

// ReadPacket reads one control packet from r: it parses the fixed
// header, reads exactly RemainingLength bytes into a buffer, and parses
// the packet from that buffer (spec.md Pattern 4 / §4.C) — a malformed
// packet can never desynchronize the underlying stream because the
// byte count read from the socket depends only on the varint, never on
// how the body parses.
func ReadPacket(r *bufio.Reader) (Packet, error) {
	firstByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}

	typ := PacketType(firstByte >> 4)
	flags := firstByte & 0x0F

	if typ == ptReserved || typ > Disconnect {
		return nil, ErrInvalidControlPacketType
	}

	remLen, err := readRemainingLength(r)
	if err != nil {
		return nil, err
	}

	body := make([]byte, remLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, ErrUnexpectedEOF
	}

	return decodeBody(typ, flags, body)
}

// readRemainingLength decodes the varint byte-by-byte directly off the
// reader, matching DecodeRemainingLength's accumulation and 4-byte cap.
func readRemainingLength(r *bufio.Reader) (uint32, error) {
	var value uint32
	var multiplier uint32 = 1

	for i := 0; i < maxVarintBytes; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, ErrUnexpectedEOF
		}

		value += uint32(b&0x7F) * multiplier

		if b&0x80 == 0 {
			return value, nil
		}

		if multiplier > 128*128*128 {
			return 0, ErrMalformedRemainingLen
		}
		multiplier *= 128
	}

	return 0, ErrMalformedRemainingLen
}

func decodeBody(typ PacketType, flags byte, body []byte) (Packet, error) {
	if typ == Publish {
		return decodePublish(flags, body)
	}

	if err := validateFixedFlags(typ, flags); err != nil {
		return nil, err
	}

	switch typ {
	case Connect:
		return decodeConnect(body)
	case PubAck:
		return decodePktIDOnly(body, func(id uint16) Packet { return &PubAckPacket{PktID: id} })
	case PubRec:
		return decodePktIDOnly(body, func(id uint16) Packet { return &PubRecPacket{PktID: id} })
	case PubRel:
		return decodePktIDOnly(body, func(id uint16) Packet { return &PubRelPacket{PktID: id} })
	case PubComp:
		return decodePktIDOnly(body, func(id uint16) Packet { return &PubCompPacket{PktID: id} })
	case Subscribe:
		return decodeSubscribe(body)
	case Unsubscribe:
		return decodeUnsubscribe(body)
	case PingReq:
		return &PingReqPacket{}, nil
	case Disconnect:
		return &DisconnectPacket{}, nil
	case ConnAck, SubAck, UnsubAck, PingResp:
		// Server-to-client only; a conforming client never sends these.
		return nil, ErrUnimplementedPktType
	default:
		return nil, ErrInvalidControlPacketType
	}
}

// validateFixedFlags enforces spec.md §4.C's per-type flag requirement:
// SUBSCRIBE/UNSUBSCRIBE/PUBREL require flags == 0b0010, everything else
// (besides PUBLISH, handled separately) requires flags == 0.
func validateFixedFlags(typ PacketType, flags byte) error {
	switch typ {
	case Subscribe, Unsubscribe, PubRel:
		if flags != 0x02 {
			return ErrInvalidFixedHeaderFlags
		}
	default:
		if flags != 0x00 {
			return ErrInvalidFixedHeaderFlags
		}
	}
	return nil
}

func decodePktIDOnly(body []byte, build func(uint16) Packet) (Packet, error) {
	id, err := getU16(body)
	if err != nil {
		return nil, err
	}
	return build(id), nil
}

func decodeConnect(body []byte) (Packet, error) {
	offset := 0

	protocolName, n, err := decodeString(body[offset:])
	if err != nil {
		return nil, err
	}
	offset += n
	if protocolName != "MQTT" {
		return nil, ErrInvalidProtocol
	}

	if len(body[offset:]) < 1 {
		return nil, ErrUnexpectedEOF
	}
	protocolLevel := body[offset]
	offset++
	if protocolLevel != 4 {
		return nil, ErrUnacceptableProtocolLv
	}

	if len(body[offset:]) < 1 {
		return nil, ErrUnexpectedEOF
	}
	flags := body[offset]
	offset++

	keepAlive, err := getU16(body[offset:])
	if err != nil {
		return nil, err
	}
	offset += 2

	p := &ConnectPacket{
		CleanSession: flags&connectFlagCleanSession != 0,
		KeepAlive:    keepAlive,
	}

	clientID, n, err := decodeString(body[offset:])
	if err != nil {
		return nil, err
	}
	offset += n

	if clientID == "" {
		if !p.CleanSession {
			return nil, ErrIDRejected
		}
		clientID, err = newAssignedClientID()
		if err != nil {
			return nil, err
		}
	}
	p.ClientID = clientID

	if flags&connectFlagWill != 0 {
		p.HasWill = true
		p.WillQoS = QoS((flags & connectFlagWillQoSMask) >> 3)
		if !p.WillQoS.valid() {
			return nil, ErrInvalidQosLv
		}
		p.WillRetain = flags&connectFlagWillRetain != 0

		willTopic, n, err := decodeString(body[offset:])
		if err != nil {
			return nil, err
		}
		offset += n
		p.WillTopic = willTopic

		willPayload, n, err := decodeBlob(body[offset:])
		if err != nil {
			return nil, err
		}
		offset += n
		p.WillMessage = willPayload
	}

	if flags&connectFlagUsername != 0 {
		username, n, err := decodeString(body[offset:])
		if err != nil {
			return nil, err
		}
		offset += n
		p.HasUsername = true
		p.Username = username
	}

	if flags&connectFlagPassword != 0 {
		password, n, err := decodeBlob(body[offset:])
		if err != nil {
			return nil, err
		}
		offset += n
		p.HasPassword = true
		p.Password = password
	}

	return p, nil
}

func decodePublish(flags byte, body []byte) (Packet, error) {
	p := &PublishPacket{
		DUP:    flags&0x08 != 0,
		QoS:    QoS((flags & 0x06) >> 1),
		Retain: flags&0x01 != 0,
	}
	if !p.QoS.valid() {
		return nil, ErrInvalidQosLv
	}

	offset := 0
	topic, n, err := decodeString(body[offset:])
	if err != nil {
		return nil, err
	}
	offset += n
	p.TopicName = topic

	if p.QoS != QoS0 {
		id, err := getU16(body[offset:])
		if err != nil {
			return nil, err
		}
		offset += 2
		p.PktID = id
		p.HasID = true
	}

	p.Payload = append([]byte(nil), body[offset:]...)
	return p, nil
}

func decodeSubscribe(body []byte) (Packet, error) {
	offset := 0
	id, err := getU16(body[offset:])
	if err != nil {
		return nil, err
	}
	offset += 2

	p := &SubscribePacket{PktID: id}

	for offset < len(body) {
		filter, n, err := decodeString(body[offset:])
		if err != nil {
			return nil, err
		}
		offset += n

		if len(body[offset:]) < 1 {
			return nil, ErrUnexpectedEOF
		}
		qosByte := body[offset]
		offset++

		if qosByte&0xFC != 0 {
			return nil, ErrSubscribeInvalidRequestedQos
		}
		qos := QoS(qosByte & 0x03)
		if !qos.valid() {
			return nil, ErrSubscribeInvalidRequestedQos
		}

		p.Subscriptions = append(p.Subscriptions, SubscriptionRequest{
			TopicFilter:  filter,
			RequestedQoS: qos,
		})
	}

	if len(p.Subscriptions) == 0 {
		return nil, ErrSubscribeMissingTopicFilters
	}

	return p, nil
}

func decodeUnsubscribe(body []byte) (Packet, error) {
	offset := 0
	id, err := getU16(body[offset:])
	if err != nil {
		return nil, err
	}
	offset += 2

	p := &UnsubscribePacket{PktID: id}

	for offset < len(body) {
		filter, n, err := decodeString(body[offset:])
		if err != nil {
			return nil, err
		}
		offset += n
		p.TopicFilters = append(p.TopicFilters, filter)
	}

	return p, nil
}
