// Package conversation holds the client-side state of a chat about an
// uploaded document: the ordered message list, the document registry and the
// Session that drives uploads and streamed answers into them.
package conversation

import (
	"errors"
	"fmt"

	"contextai-go/internal/model"
	"contextai-go/pkg/stream"
)

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser      Sender = model.SenderUser
	SenderAssistant Sender = model.SenderAssistant
)

// User-visible texts synthesized by the session.
const (
	FailureNotice       = "Sorry, I ran into an error. Please check the server terminal."
	UploadFailureNotice = "Sorry, I ran into an error uploading that file. Please check the server."
)

func uploadConfirmation(filename string) string {
	return fmt.Sprintf("Successfully uploaded and processed %q. You can now ask questions about it.", filename)
}

// Message is one entry of the conversation. ID is unique within a session
// and only addresses a message for in-place updates; order is the position
// in the list. A sealed message never changes again.
type Message struct {
	ID     uint64 `json:"id"`
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
	Sealed bool   `json:"sealed"`
}

// InFlight reports whether the message is still receiving streamed text.
func (m Message) InFlight() bool {
	return !m.Sealed
}

// ErrSealed is returned when a command targets a sealed message.
var ErrSealed = errors.New("conversation: message is sealed")

// CommandKind tags a Command.
type CommandKind int

const (
	// CommandAppend appends Text to the in-flight message.
	CommandAppend CommandKind = iota + 1
	// CommandSeal ends the in-flight message as it is.
	CommandSeal
	// CommandFail replaces the text with FailureNotice and seals.
	CommandFail
)

// Command is a state mutation aimed at the in-flight assistant message.
type Command struct {
	Kind CommandKind
	Text string
}

// ErrUnknownEvent is returned by Interpret for events of no known kind.
var ErrUnknownEvent = errors.New("conversation: unknown stream event")

// Interpret maps a decoded stream event to the command it implies.
func Interpret(ev stream.Event) (Command, error) {
	switch ev.Kind {
	case stream.KindChunk:
		return Command{Kind: CommandAppend, Text: ev.Text}, nil
	case stream.KindDone:
		return Command{Kind: CommandSeal}, nil
	case stream.KindError:
		return Command{Kind: CommandFail}, nil
	default:
		return Command{}, fmt.Errorf("%w: %v", ErrUnknownEvent, ev.Kind)
	}
}

// Apply mutates m according to cmd.
func (m *Message) Apply(cmd Command) error {
	if m.Sealed {
		return ErrSealed
	}
	switch cmd.Kind {
	case CommandAppend:
		m.Text += cmd.Text
	case CommandSeal:
		m.Sealed = true
	case CommandFail:
		m.Text = FailureNotice
		m.Sealed = true
	default:
		return fmt.Errorf("conversation: unknown command kind %d", cmd.Kind)
	}
	return nil
}
