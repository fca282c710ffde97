package chat

// Message is one outbound reply element.
type Message interface {
	isMessage()
}

// Text is a plain message with an optional quick-reply button set.
type Text struct {
	Text         string
	QuickReplies []Button
}

// Sticker is a canned image; the transport maps the kind to a concrete asset.
type Sticker struct {
	Kind StickerKind
}

// Confirm is a two-button template, e.g. yes/cancel.
type Confirm struct {
	Text    string
	AltText string
	Left    PostbackButton
	Right   PostbackButton
}

func (Text) isMessage()    {}
func (Sticker) isMessage() {}
func (Confirm) isMessage() {}

type StickerKind string

const (
	StickerApology           StickerKind = "apology"
	StickerCelebrate         StickerKind = "celebrate"
	StickerTeacherOn         StickerKind = "teacher_on"
	StickerTeacherOff        StickerKind = "teacher_off"
	StickerOkay              StickerKind = "okay"
	StickerConfused          StickerKind = "confused"
	StickerUnderConstruction StickerKind = "under_construction"
	StickerSent              StickerKind = "sent"
	StickerAck               StickerKind = "ack"
)

// Button is a quick-reply element.
type Button interface {
	isButton()
}

type PostbackButton struct {
	Label string
	Data  string
}

// PickerMode selects what a DatePickerButton collects.
type PickerMode string

const (
	PickDate     PickerMode = "date"
	PickDatetime PickerMode = "datetime"
)

// DatePickerButton asks the transport to collect a date or datetime and send it back
// as a postback with Data and the matching parameter.
type DatePickerButton struct {
	Label string
	Data  string
	Mode  PickerMode
	Past  bool // offer past days instead of upcoming ones
}

func (PostbackButton) isButton()   {}
func (DatePickerButton) isButton() {}
