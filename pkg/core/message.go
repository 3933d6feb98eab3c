// pkg/core/message.go
package core

// Message is the notification payload sent to attention consumers.
type Message string

// The only two payloads on the wire.
const (
	MessageLookingAway Message = "LOOKING_AWAY"
	MessageLooking     Message = "LOOKING"
)

// MessageFor maps a verdict to its payload.
func MessageFor(lookingAway bool) Message {
	if lookingAway {
		return MessageLookingAway
	}
	return MessageLooking
}

// LookingAway reports whether m is the away payload.
func (m Message) LookingAway() bool {
	return m == MessageLookingAway
}

// Bytes returns the ASCII datagram payload.
func (m Message) Bytes() []byte {
	return []byte(m)
}

// ParseMessage returns the message for a received payload. Anything other
// than the two exact literals is rejected.
func ParseMessage(b []byte) (Message, bool) {
	switch Message(b) {
	case MessageLookingAway:
		return MessageLookingAway, true
	case MessageLooking:
		return MessageLooking, true
	default:
		return "", false
	}
}
