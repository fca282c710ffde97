package chat

import (
	"strings"
	"time"
)

// EventKind is the shape of an inbound event.
type EventKind int

const (
	EventText EventKind = iota
	EventPostback
	EventSticker
)

func (k EventKind) String() string {
	switch k {
	case EventText:
		return "text"
	case EventPostback:
		return "postback"
	case EventSticker:
		return "sticker"
	default:
		return "unknown"
	}
}

// Event is the canonical inbound event handed to the conversation service.
type Event struct {
	ID         string
	Kind       EventKind
	SenderID   string
	ReplyToken string
	Timestamp  time.Time
	Text       string
	Postback   Postback
}

// Postback carries a structured command plus optional picker values.
type Postback struct {
	Data   string
	Params PostbackParams
}

type PostbackParams struct {
	Date     string
	Datetime string
}

const (
	paramSeparator = "|"
	paramDate      = "date="
	paramDatetime  = "datetime="
)

// EncodePostback packs the command and picker values into one callback string.
func EncodePostback(p Postback) string {
	var b strings.Builder
	b.WriteString(p.Data)
	if p.Params.Date != "" {
		b.WriteString(paramSeparator + paramDate + p.Params.Date)
	}
	if p.Params.Datetime != "" {
		b.WriteString(paramSeparator + paramDatetime + p.Params.Datetime)
	}
	return b.String()
}

// DecodePostback is the inverse of EncodePostback. Unknown parameters are dropped.
func DecodePostback(raw string) Postback {
	parts := strings.Split(raw, paramSeparator)
	p := Postback{Data: parts[0]}
	for _, part := range parts[1:] {
		switch {
		case strings.HasPrefix(part, paramDate):
			p.Params.Date = strings.TrimPrefix(part, paramDate)
		case strings.HasPrefix(part, paramDatetime):
			p.Params.Datetime = strings.TrimPrefix(part, paramDatetime)
		}
	}
	return p
}
