package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostbackRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   Postback
		raw  string
	}{
		{"plain", Postback{Data: "menu_absence"}, "menu_absence"},
		{"date", Postback{Data: "action_irregular_absence", Params: PostbackParams{Date: "2024-04-08"}}, "action_irregular_absence|date=2024-04-08"},
		{"datetime", Postback{Data: "action_irregular_tardiness", Params: PostbackParams{Datetime: "2024-04-08T09:30"}}, "action_irregular_tardiness|datetime=2024-04-08T09:30"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.raw, EncodePostback(tt.in))
			assert.Equal(t, tt.in, DecodePostback(tt.raw))
		})
	}
}

func TestDecodePostbackIgnoresUnknownParams(t *testing.T) {
	p := DecodePostback("teacher_seeActionsByDate|foo=bar|date=2024-04-08")
	assert.Equal(t, "teacher_seeActionsByDate", p.Data)
	assert.Equal(t, "2024-04-08", p.Params.Date)
	assert.Empty(t, p.Params.Datetime)
}
