package chat

import (
	"context"
	"errors"
	"fmt"
)

// ---------------------------------------------
// Frames & peers
// ---------------------------------------------

// FrameKind is the shape of an inbound payload.
type FrameKind int

const (
	FrameUnknown FrameKind = iota
	FrameText
	FrameBinary
	FrameClose
)

func (k FrameKind) String() string {
	switch k {
	case FrameText:
		return "text"
	case FrameBinary:
		return "binary"
	case FrameClose:
		return "close"
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Frame is one inbound event from a connection.
type Frame struct {
	Kind FrameKind
	Text string
	Data []byte
}

// Peer is anything the hub can deliver a line of text to.
// Implementations must be comparable (pointer types).
type Peer interface {
	Send(ctx context.Context, text string) error
}

// ErrClosed ends a connection's inbound loop.
var ErrClosed = errors.New("connection closed")

// ---------------------------------------------
// Connection lifecycle
// ---------------------------------------------

type State int32

const (
	StateJoining State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateJoining:
		return "joining"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// ---------------------------------------------
// Lines sent to clients
// ---------------------------------------------

const (
	joinNotice          = "🟢 %s joined the chat"
	leaveNotice         = "🔻 %s left the chat"
	voiceNotice         = "%s sent a voice note: %s"
	chatLine            = "%s: %s"
	persistFailedNotice = "⚠️ message could not be saved to history"
	storeFailedNotice   = "⚠️ voice note could not be stored"
)

func JoinNotice(name string) string { return fmt.Sprintf(joinNotice, name) }
func LeaveNotice(name string) string { return fmt.Sprintf(leaveNotice, name) }

func VoiceNotice(name, url string) string { return fmt.Sprintf(voiceNotice, name, url) }

func ChatLine(name, body string) string { return fmt.Sprintf(chatLine, name, body) }
