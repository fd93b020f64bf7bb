package wire

import "unicode/utf8"

// Primitive field codec (spec.md §4.B): big-endian u16, length-prefixed
// UTF-8 strings, length-prefixed binary blobs. Hand-rolled rather than
// encoding/binary, matching the teacher repo's own hot-path idiom for
// these exact primitives.

// putU16 writes v big-endian into buf[0:2]. The caller must ensure buf
// has at least 2 bytes available.
func putU16(buf []byte, v uint16) {
	buf[0] = byte(v >> 8)
	buf[1] = byte(v)
}

// getU16 reads a big-endian u16 from the front of data.
func getU16(data []byte) (uint16, error) {
	if len(data) < 2 {
		return 0, ErrUnexpectedEOF
	}
	return uint16(data[0])<<8 | uint16(data[1]), nil
}

// encodeString appends a length-prefixed UTF-8 string to buf.
func encodeString(buf []byte, s string) ([]byte, error) {
	if len(s) > 65535 {
		return nil, ErrStrTooLong
	}
	var lenBuf [2]byte
	putU16(lenBuf[:], uint16(len(s)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, s...)
	return buf, nil
}

// decodeString reads a length-prefixed UTF-8 string from the front of
// data, returning the string and the number of bytes consumed.
func decodeString(data []byte) (string, int, error) {
	length, err := getU16(data)
	if err != nil {
		return "", 0, err
	}
	offset := 2
	if len(data[offset:]) < int(length) {
		return "", 0, ErrUnexpectedEOF
	}
	raw := data[offset : offset+int(length)]
	if !utf8.Valid(raw) {
		return "", 0, ErrMalformedUTF8Str
	}
	return string(raw), offset + int(length), nil
}

// encodeBlob appends a length-prefixed binary blob to buf.
func encodeBlob(buf []byte, b []byte) ([]byte, error) {
	if len(b) > 65535 {
		return nil, ErrStrTooLong
	}
	var lenBuf [2]byte
	putU16(lenBuf[:], uint16(len(b)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, b...)
	return buf, nil
}

// decodeBlob reads a length-prefixed binary blob from the front of
// data, returning the blob and the number of bytes consumed.
func decodeBlob(data []byte) ([]byte, int, error) {
	length, err := getU16(data)
	if err != nil {
		return nil, 0, err
	}
	offset := 2
	if len(data[offset:]) < int(length) {
		return nil, 0, ErrUnexpectedEOF
	}
	out := make([]byte, length)
	copy(out, data[offset:offset+int(length)])
	return out, offset + int(length), nil
}
