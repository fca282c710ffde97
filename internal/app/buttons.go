package app

import (
	"strconv"

	"attendance_notice_bot/internal/domain/action"
	"attendance_notice_bot/internal/domain/chat"
	"attendance_notice_bot/internal/domain/user"
)

// Postback data understood by the conversation.
const (
	prefixLanguage  = "language_"
	prefixGrade     = "grade_"
	prefixClassroom = "classroom_"
	prefixMenu      = "menu_"
	prefixOthers    = "action_others_"
	prefixIrregular = "action_irregular_"
	prefixTeacher   = "teacher_"

	dataSubmit       = "action_submit_yes"
	dataSubmitLegacy = "submit_yes"
	dataCancel       = "action_cancel"

	languageJapanese = "japanese"
	languageEnglish  = "english"

	menuAnswerSubmit = "answerSubmit"
)

// Teacher mode commands, sent as prefixTeacher + command.
const (
	teacherSeeActionsByDate = "seeActionsByDate"
	teacherSeeActionsAll    = "seeActionsAll"
	teacherSeeUsers         = "seeUsers"
	teacherSetEmail         = "setEmail"
	teacherDeleteUser       = "deleteUser"
	teacherOff              = "teacherOff"
)

var menuOrder = []string{
	string(action.CategoryAbsence),
	string(action.CategoryTardiness),
	string(action.CategoryLeaveEarly),
	string(action.CategoryContactQuestion),
	menuAnswerSubmit,
	string(action.CategoryOthers),
}

func numberButtons(max int, prefix string) []chat.Button {
	buttons := make([]chat.Button, 0, max)
	for i := 1; i <= max; i++ {
		n := strconv.Itoa(i)
		buttons = append(buttons, chat.PostbackButton{Label: n, Data: prefix + n})
	}
	return buttons
}

func (s *ConversationService) menuButtons(lang user.Language) []chat.Button {
	buttons := make([]chat.Button, 0, len(menuOrder))
	for _, item := range menuOrder {
		buttons = append(buttons, chat.PostbackButton{Label: s.words.T(lang, item), Data: prefixMenu + item})
	}
	return buttons
}

func (s *ConversationService) cancelButton(lang user.Language) chat.Button {
	return chat.PostbackButton{Label: s.words.T(lang, "cancel"), Data: dataCancel}
}

// whenButtons offers the picker matching the category, plus cancel.
func (s *ConversationService) whenButtons(lang user.Language, c action.Category) []chat.Button {
	picker := chat.DatePickerButton{Data: prefixIrregular + string(c)}
	if c.WhenKind() == action.WhenDateTime {
		picker.Label = s.words.T(lang, "chooseDateTime")
		picker.Mode = chat.PickDatetime
	} else {
		picker.Label = s.words.T(lang, "chooseDate")
		picker.Mode = chat.PickDate
	}
	return []chat.Button{picker, s.cancelButton(lang)}
}

func (s *ConversationService) subCategoryButtons(lang user.Language, group action.Category) []chat.Button {
	subs := group.SubCategories()
	buttons := make([]chat.Button, 0, len(subs)+1)
	for _, c := range subs {
		buttons = append(buttons, chat.PostbackButton{Label: s.words.T(lang, string(c)), Data: prefixOthers + string(c)})
	}
	return append(buttons, s.cancelButton(lang))
}

func (s *ConversationService) teacherButtons(lang user.Language) []chat.Button {
	buttons := []chat.Button{
		chat.DatePickerButton{
			Label: s.words.T(lang, teacherSeeActionsByDate),
			Data:  prefixTeacher + teacherSeeActionsByDate,
			Mode:  chat.PickDate,
			Past:  true,
		},
	}
	for _, cmd := range []string{teacherSeeActionsAll, teacherSeeUsers, teacherSetEmail, teacherDeleteUser, teacherOff} {
		buttons = append(buttons, chat.PostbackButton{Label: s.words.T(lang, cmd), Data: prefixTeacher + cmd})
	}
	return buttons
}
