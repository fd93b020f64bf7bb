package wire

// Encode serializes p to its wire bytes. Only the packet types the
// broker emits (spec.md §4.C "Encoders") are implemented; everything
// else returns ErrUnimplementedPkt so a caller can tell a genuine gap
// from a malformed packet.
func Encode(p Packet) ([]byte, error) {
	switch v := p.(type) {
	case *ConnAckPacket:
		return encodeConnAck(v)
	case *PingRespPacket:
		return encodePingResp()
	case *PublishPacket:
		return encodePublish(v)
	case *PubAckPacket:
		return encodePktIDOnly(PubAck, v.PktID)
	case *PubRecPacket:
		return encodePktIDOnly(PubRec, v.PktID)
	case *SubAckPacket:
		return encodeSubAck(v)
	default:
		return nil, ErrUnimplementedPkt
	}
}

// encodeFixedHeader appends the fixed header (type+flags byte, then the
// remaining-length varint) to buf.
func encodeFixedHeader(buf []byte, typ PacketType, flags byte, remainingLength uint32) ([]byte, error) {
	buf = append(buf, byte(typ)<<4|flags)
	varint, err := EncodeRemainingLength(remainingLength)
	if err != nil {
		return nil, err
	}
	return append(buf, varint...), nil
}

func encodeConnAck(p *ConnAckPacket) ([]byte, error) {
	buf := make([]byte, 0, 4)
	buf, err := encodeFixedHeader(buf, ConnAck, 0, 2)
	if err != nil {
		return nil, err
	}

	var ackFlags byte
	if p.SessionPresent {
		ackFlags = 0x01
	}
	buf = append(buf, ackFlags, byte(p.ReturnCode))
	return buf, nil
}

func encodePingResp() ([]byte, error) {
	return encodeFixedHeader(make([]byte, 0, 2), PingResp, 0, 0)
}

func encodePublish(p *PublishPacket) ([]byte, error) {
	if !p.QoS.valid() {
		return nil, ErrInvalidQosLv
	}
	if p.QoS != QoS0 && !p.HasID {
		return nil, ErrInvalidQosLv
	}

	remainingLength := 2 + len(p.TopicName) + len(p.Payload)
	if p.QoS != QoS0 {
		remainingLength += 2
	}

	var flags byte
	if p.DUP {
		flags |= 0x08
	}
	flags |= byte(p.QoS) << 1
	if p.Retain {
		flags |= 0x01
	}

	buf := make([]byte, 0, remainingLength+5)
	buf, err := encodeFixedHeader(buf, Publish, flags, uint32(remainingLength))
	if err != nil {
		return nil, err
	}

	buf, err = encodeString(buf, p.TopicName)
	if err != nil {
		return nil, err
	}

	if p.QoS != QoS0 {
		var idBuf [2]byte
		putU16(idBuf[:], p.PktID)
		buf = append(buf, idBuf[:]...)
	}

	buf = append(buf, p.Payload...)
	return buf, nil
}

func encodePktIDOnly(typ PacketType, id uint16) ([]byte, error) {
	buf := make([]byte, 0, 4)
	buf, err := encodeFixedHeader(buf, typ, 0, 2)
	if err != nil {
		return nil, err
	}
	var idBuf [2]byte
	putU16(idBuf[:], id)
	return append(buf, idBuf[:]...), nil
}

func encodeSubAck(p *SubAckPacket) ([]byte, error) {
	remainingLength := 2 + len(p.ReturnCodes)
	buf := make([]byte, 0, remainingLength+4)
	buf, err := encodeFixedHeader(buf, SubAck, 0, uint32(remainingLength))
	if err != nil {
		return nil, err
	}

	var idBuf [2]byte
	putU16(idBuf[:], p.PktID)
	buf = append(buf, idBuf[:]...)

	for _, code := range p.ReturnCodes {
		buf = append(buf, byte(code))
	}
	return buf, nil
}
