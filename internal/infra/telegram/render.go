package telegram

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"attendance_notice_bot/internal/domain/action"
	"attendance_notice_bot/internal/domain/chat"

	"gopkg.in/telebot.v3"
)

const (
	maxMessageLength = 4096

	pickerDays = 7
	firstHour  = 7
	lastHour   = 18

	buttonsPerRow = 3
	daysPerRow    = 4
	hoursPerRow   = 4

	// dayCallbackPrefix marks the first step of a datetime picker: "dtday|<data>|<date>".
	dayCallbackPrefix = "dtday|"
	dayLabelLayout    = "Mon 1/2"
)

// renderer turns transport-neutral buttons into inline keyboards.
// Telegram has no native date picker, so pickers become day and hour keyboards.
type renderer struct {
	location *time.Location
	now      func() time.Time
}

func (r renderer) keyboard(buttons []chat.Button) *telebot.ReplyMarkup {
	if len(buttons) == 0 {
		return nil
	}
	var (
		rows [][]telebot.InlineButton
		row  []telebot.InlineButton
	)
	flush := func() {
		if len(row) > 0 {
			rows = append(rows, row)
			row = nil
		}
	}
	for _, b := range buttons {
		switch v := b.(type) {
		case chat.PostbackButton:
			row = append(row, telebot.InlineButton{Text: v.Label, Data: v.Data})
			if len(row) == buttonsPerRow {
				flush()
			}
		case chat.DatePickerButton:
			flush()
			rows = append(rows, r.dayRows(v)...)
		}
	}
	flush()
	return &telebot.ReplyMarkup{InlineKeyboard: rows}
}

func (r renderer) confirm(c chat.Confirm) *telebot.ReplyMarkup {
	return &telebot.ReplyMarkup{InlineKeyboard: [][]telebot.InlineButton{{
		{Text: c.Left.Label, Data: c.Left.Data},
		{Text: c.Right.Label, Data: c.Right.Data},
	}}}
}

// days lists today and the following days, or today and the preceding days when past is set.
func (r renderer) days(past bool) []time.Time {
	now := r.now().In(r.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, r.location)
	step := 1
	if past {
		step = -1
	}
	out := make([]time.Time, 0, pickerDays)
	for i := 0; i < pickerDays; i++ {
		out = append(out, today.AddDate(0, 0, i*step))
	}
	return out
}

func (r renderer) dayRows(p chat.DatePickerButton) [][]telebot.InlineButton {
	buttons := make([]telebot.InlineButton, 0, pickerDays)
	for _, day := range r.days(p.Past) {
		date := day.Format(action.DateLayout)
		var data string
		if p.Mode == chat.PickDatetime {
			data = dayCallbackPrefix + p.Data + "|" + date
		} else {
			data = chat.EncodePostback(chat.Postback{Data: p.Data, Params: chat.PostbackParams{Date: date}})
		}
		buttons = append(buttons, telebot.InlineButton{Text: day.Format(dayLabelLayout), Data: data})
	}
	return chunk(buttons, daysPerRow)
}

// parseDayCallback splits "dtday|<data>|<date>" into its parts.
func parseDayCallback(raw string) (data, date string, ok bool) {
	rest, found := strings.CutPrefix(raw, dayCallbackPrefix)
	if !found {
		return "", "", false
	}
	i := strings.LastIndex(rest, "|")
	if i <= 0 {
		return "", "", false
	}
	data, date = rest[:i], rest[i+1:]
	if _, err := time.Parse(action.DateLayout, date); err != nil {
		return "", "", false
	}
	return data, date, true
}

// hourKeyboard is the second step of a datetime picker.
func hourKeyboard(data, date string) *telebot.ReplyMarkup {
	buttons := make([]telebot.InlineButton, 0, lastHour-firstHour+1)
	for h := firstHour; h <= lastHour; h++ {
		clock := fmt.Sprintf("%02d:00", h)
		buttons = append(buttons, telebot.InlineButton{
			Text: clock,
			Data: chat.EncodePostback(chat.Postback{Data: data, Params: chat.PostbackParams{Datetime: date + "T" + clock}}),
		})
	}
	return &telebot.ReplyMarkup{InlineKeyboard: chunk(buttons, hoursPerRow)}
}

func chunk(buttons []telebot.InlineButton, size int) [][]telebot.InlineButton {
	var rows [][]telebot.InlineButton
	for len(buttons) > size {
		rows = append(rows, buttons[:size])
		buttons = buttons[size:]
	}
	if len(buttons) > 0 {
		rows = append(rows, buttons)
	}
	return rows
}

// splitText breaks long replies into Telegram-sized parts, preferring paragraph boundaries.
func splitText(text string, limit int) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	var (
		parts   []string
		current strings.Builder
	)
	for _, para := range strings.Split(text, "\n\n") {
		for utf8.RuneCountInString(para) > limit {
			if current.Len() > 0 {
				parts = append(parts, current.String())
				current.Reset()
			}
			cut := runeOffset(para, limit)
			parts = append(parts, para[:cut])
			para = para[cut:]
		}
		sep := 0
		if current.Len() > 0 {
			sep = 2
		}
		if utf8.RuneCountInString(current.String())+sep+utf8.RuneCountInString(para) > limit {
			parts = append(parts, current.String())
			current.Reset()
			sep = 0
		}
		if sep > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	if current.Len() > 0 {
		parts = append(parts, current.String())
	}
	return parts
}

func runeOffset(s string, n int) int {
	i := 0
	for pos := range s {
		if i == n {
			return pos
		}
		i++
	}
	return len(s)
}

var stickerEmoji = map[chat.StickerKind]string{
	chat.StickerApology:           "🙇",
	chat.StickerCelebrate:         "🎉",
	chat.StickerTeacherOn:         "🧑‍🏫",
	chat.StickerTeacherOff:        "👋",
	chat.StickerOkay:              "👌",
	chat.StickerConfused:          "🤔",
	chat.StickerUnderConstruction: "🚧",
	chat.StickerSent:              "📨",
	chat.StickerAck:               "👍",
}
