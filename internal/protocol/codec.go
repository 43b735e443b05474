package protocol

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyPacket     = errors.New("packet is empty")
	ErrUnknownType     = errors.New("unknown packet type")
	ErrBadFieldCount   = errors.New("wrong field count for packet type")
	ErrFieldHasDelim   = errors.New("field contains the delimiter")
	ErrFieldHasNewline = errors.New("field contains a line break")
)

// Packet is one decoded protocol message: the type code and its fields.
type Packet struct {
	Type   string
	Fields []string
}

// Encode joins a packet type and its fields into one wire line, without
// the trailing newline. Fields must not contain the delimiter or line
// breaks; there is no escaping in this protocol, so such fields are
// rejected outright.
func Encode(packetType string, fields ...string) (string, error) {
	bounds, ok := arities[packetType]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, packetType)
	}

	if len(fields) < bounds.min || (bounds.max != unbounded && len(fields) > bounds.max) {
		return "", fmt.Errorf("%w: %q with %d fields", ErrBadFieldCount, packetType, len(fields))
	}

	for _, field := range fields {
		if strings.Contains(field, Delimiter) {
			return "", fmt.Errorf("%w: %q", ErrFieldHasDelim, field)
		}
		if strings.ContainsAny(field, "\r\n") {
			return "", fmt.Errorf("%w: %q", ErrFieldHasNewline, field)
		}
	}

	if len(fields) == 0 {
		return packetType, nil
	}

	return packetType + Delimiter + strings.Join(fields, Delimiter), nil
}

// MustEncode is Encode for packets built from trusted server-side values.
// It panics on a malformed packet, which always indicates a programming
// error rather than bad input.
func MustEncode(packetType string, fields ...string) string {
	line, err := Encode(packetType, fields...)
	if err != nil {
		panic(err)
	}
	return line
}

// Decode splits one wire line into a Packet and validates the type code
// and field count. The returned errors all classify as malformed-packet
// failures; callers decide how many of those a connection may produce.
func Decode(line string) (*Packet, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return nil, ErrEmptyPacket
	}

	tokens := strings.Split(line, Delimiter)
	packetType := tokens[0]
	fields := tokens[1:]

	bounds, ok := arities[packetType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, packetType)
	}

	if len(fields) < bounds.min || (bounds.max != unbounded && len(fields) > bounds.max) {
		return nil, fmt.Errorf("%w: %q with %d fields", ErrBadFieldCount, packetType, len(fields))
	}

	return &Packet{Type: packetType, Fields: fields}, nil
}

// IsMalformed reports whether err came out of Decode or Encode.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrEmptyPacket) ||
		errors.Is(err, ErrUnknownType) ||
		errors.Is(err, ErrBadFieldCount) ||
		errors.Is(err, ErrFieldHasDelim) ||
		errors.Is(err, ErrFieldHasNewline)
}
