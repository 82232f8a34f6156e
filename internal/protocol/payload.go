package protocol

import "strings"

// Payload prefixes. The first byte of a frame decides how it is routed.
const (
	ControlPrefix   = '!'
	ActionPrefix    = '@'
	RejectionPrefix = '^'

	cardAction = "card_"
)

// Notice prefixes used on server generated text.
const (
	ServerTag  = "[SERVER] "
	PrivateTag = "[PRIVATE] "
)

// Kind classifies a client payload.
type Kind int

const (
	KindChat Kind = iota
	KindControl
	KindAction
)

func (k Kind) String() string {
	switch k {
	case KindControl:
		return "control"
	case KindAction:
		return "action"
	default:
		return "chat"
	}
}

// Command is a classified client payload.
//
// For control messages Word is the command ("deal", "name") and Args the
// remainder with surrounding space removed. For actions Word is "card" with
// the card code in Args, or the bare action ("trick", "pass", "3n").
// For chat Text holds the whole payload.
type Command struct {
	Kind Kind
	Word string
	Args string
	Text string
}

// Classify dispatches on the first byte of a client payload. A leading '^'
// is reserved for the server and is treated as ordinary chat.
func Classify(text string) Command {
	if text == "" {
		return Command{Kind: KindChat}
	}

	switch text[0] {
	case ControlPrefix:
		body := text[1:]
		word, args, _ := strings.Cut(body, " ")
		return Command{
			Kind: KindControl,
			Word: strings.ToLower(word),
			Args: strings.TrimSpace(args),
			Text: text,
		}
	case ActionPrefix:
		body := strings.TrimSpace(text[1:])
		if rest, ok := strings.CutPrefix(body, cardAction); ok {
			return Command{Kind: KindAction, Word: "card", Args: rest, Text: text}
		}
		return Command{Kind: KindAction, Word: strings.ToLower(body), Text: text}
	}
	return Command{Kind: KindChat, Text: text}
}

// SplitFirst separates the first space delimited word from the rest, as
// used by "!scold <name> <text>".
func SplitFirst(args string) (string, string) {
	first, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	return first, strings.TrimSpace(rest)
}

// CardAction builds the action that plays a card.
func CardAction(code string) string {
	return string(ActionPrefix) + cardAction + code
}

// Notice formats a broadcast notice from the server.
func Notice(text string) string {
	return ServerTag + text
}

// Private formats a notice addressed to one peer.
func Private(text string) string {
	return PrivateTag + text
}

// Rejection formats a private rejection.
func Rejection(text string) string {
	return string(RejectionPrefix) + text
}

// Chat formats a chat line from a named participant. Line breaks in text
// are folded into spaces so a line can never pass for a snapshot.
func Chat(name, text string) string {
	return name + ": " + flatten(text)
}

// Emote formats a "!me" line.
func Emote(name, text string) string {
	return "* " + name + " " + flatten(text)
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func flatten(text string) string {
	return lineBreaks.Replace(text)
}

// ServerKind classifies a payload received from the server.
type ServerKind int

const (
	ServerChat ServerKind = iota
	ServerNotice
	ServerRejection
	ServerSnapshot
)

func (k ServerKind) String() string {
	switch k {
	case ServerNotice:
		return "notice"
	case ServerRejection:
		return "rejection"
	case ServerSnapshot:
		return "snapshot"
	default:
		return "chat"
	}
}

// ClassifyServer reports what kind of payload the server sent.
func ClassifyServer(text string) ServerKind {
	switch {
	case text == "":
		return ServerChat
	case text[0] == RejectionPrefix:
		return ServerRejection
	case text[0] == ActionPrefix && strings.Count(text, "\n") == 2:
		return ServerSnapshot
	case strings.HasPrefix(text, ServerTag), strings.HasPrefix(text, PrivateTag):
		return ServerNotice
	}
	return ServerChat
}
