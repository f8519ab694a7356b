// Package keyboard turns plain button layouts into telebot markup.
package keyboard

import tele "gopkg.in/telebot.v4"

// Button is an inline button whose Data is sent to Telegram unchanged,
// so presses arrive at the generic OnCallback endpoint.
type Button struct {
	Text string
	Data string
}

// Remove hides the reply keyboard.
func Remove() *tele.ReplyMarkup {
	return &tele.ReplyMarkup{RemoveKeyboard: true}
}

// Reply builds a resizable reply keyboard, one slice per row.
func Reply(rows [][]string) *tele.ReplyMarkup {
	kb := make([][]tele.ReplyButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.ReplyButton, len(row))
		for i, label := range row {
			r[i] = tele.ReplyButton{Text: label}
		}
		kb = append(kb, r)
	}
	return &tele.ReplyMarkup{ResizeKeyboard: true, ReplyKeyboard: kb}
}

// Inline builds an inline keyboard, one slice per row.
func Inline(rows [][]Button) *tele.ReplyMarkup {
	kb := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, len(row))
		for i, b := range row {
			r[i] = tele.InlineButton{Text: b.Text, Data: b.Data}
		}
		kb = append(kb, r)
	}
	return &tele.ReplyMarkup{InlineKeyboard: kb}
}
