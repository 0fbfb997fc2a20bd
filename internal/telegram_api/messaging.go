package telegram_api

import (
	"fmt"
	"log"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"tutorbot/internal/outbound"
)

// Sender is the part of BotClient used for delivery.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Deliver sends intents in order. A failed intent is logged and skipped so
// that one blocked chat does not stop notifications to the others.
// It returns the number of failures.
func Deliver(s Sender, intents []outbound.Intent) int {
	failed := 0
	for _, intent := range intents {
		c, err := Chattable(intent)
		if err != nil {
			log.Printf("Deliver: %v", err)
			failed++
			continue
		}
		if intent.Kind == outbound.KindAnswerCallback {
			_, err = s.Request(c)
		} else {
			_, err = s.Send(c)
		}
		if err != nil {
			log.Printf("Deliver: %s to chat %d failed: %v", intent.Kind, intent.ChatID, err)
			failed++
		}
	}
	return failed
}

// Chattable converts an intent into its Bot API request.
func Chattable(i outbound.Intent) (tgbotapi.Chattable, error) {
	parseMode := ""
	if i.Markdown {
		parseMode = tgbotapi.ModeMarkdown
	}

	switch i.Kind {
	case outbound.KindText:
		msg := tgbotapi.NewMessage(i.ChatID, i.Text)
		msg.ParseMode = parseMode
		if markup := replyMarkup(i.Keyboard); markup != nil {
			msg.ReplyMarkup = markup
		}
		return msg, nil
	case outbound.KindPhoto:
		file, err := requestFile(i)
		if err != nil {
			return nil, err
		}
		photo := tgbotapi.NewPhoto(i.ChatID, file)
		photo.Caption = i.Text
		photo.ParseMode = parseMode
		if markup := replyMarkup(i.Keyboard); markup != nil {
			photo.ReplyMarkup = markup
		}
		return photo, nil
	case outbound.KindDocument:
		file, err := requestFile(i)
		if err != nil {
			return nil, err
		}
		doc := tgbotapi.NewDocument(i.ChatID, file)
		doc.Caption = i.Text
		doc.ParseMode = parseMode
		if markup := replyMarkup(i.Keyboard); markup != nil {
			doc.ReplyMarkup = markup
		}
		return doc, nil
	case outbound.KindAnswerCallback:
		if i.Alert {
			return tgbotapi.NewCallbackWithAlert(i.CallbackID, i.Text), nil
		}
		return tgbotapi.NewCallback(i.CallbackID, i.Text), nil
	}
	return nil, fmt.Errorf("unsupported intent kind %s", i.Kind)
}

func requestFile(i outbound.Intent) (tgbotapi.RequestFileData, error) {
	if i.FileID != "" {
		return tgbotapi.FileID(i.FileID), nil
	}
	if len(i.Bytes) > 0 {
		return tgbotapi.FileBytes{Name: i.FileName, Bytes: i.Bytes}, nil
	}
	return nil, fmt.Errorf("%s to chat %d has no file", i.Kind, i.ChatID)
}

func replyMarkup(kb *outbound.Keyboard) interface{} {
	switch {
	case kb == nil:
		return nil
	case kb.Remove:
		return tgbotapi.NewRemoveKeyboard(true)
	case len(kb.Inline) > 0:
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb.Inline))
		for _, row := range kb.Inline {
			buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
			for _, b := range row {
				if b.URL != "" {
					buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
				} else {
					buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
				}
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
		}
		return tgbotapi.NewInlineKeyboardMarkup(rows...)
	case len(kb.Reply) > 0:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(kb.Reply))
		for _, row := range kb.Reply {
			buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
			for _, b := range row {
				if b.RequestContact {
					buttons = append(buttons, tgbotapi.NewKeyboardButtonContact(b.Text))
				} else {
					buttons = append(buttons, tgbotapi.NewKeyboardButton(b.Text))
				}
			}
			rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
		}
		markup := tgbotapi.NewReplyKeyboard(rows...)
		markup.ResizeKeyboard = true
		return markup
	}
	return nil
}
