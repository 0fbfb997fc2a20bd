package telegram_api

import (
	"context"
	"log"
	"strings"
	"sync"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"tutorbot/internal/handlers"
	"tutorbot/internal/outbound"
	"tutorbot/internal/utils"
)

// EventFromUpdate decodes a message or callback update.
// Other update kinds, and messages without a sender, report false.
func EventFromUpdate(update tgbotapi.Update) (handlers.Event, bool) {
	if q := update.CallbackQuery; q != nil {
		if q.From == nil {
			return handlers.Event{}, false
		}
		chatID := q.From.ID
		if q.Message != nil {
			chatID = q.Message.Chat.ID
		}
		return handlers.Event{
			SenderID:     q.From.ID,
			ChatID:       chatID,
			SenderName:   displayName(q.From),
			IsCallback:   true,
			CallbackID:   q.ID,
			CallbackData: q.Data,
		}, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return handlers.Event{}, false
	}
	ev := handlers.Event{
		SenderID:   msg.From.ID,
		ChatID:     msg.Chat.ID,
		SenderName: displayName(msg.From),
		Text:       msg.Text,
	}
	if msg.Contact != nil {
		ev.Contact = &handlers.Contact{PhoneNumber: msg.Contact.PhoneNumber, UserID: msg.Contact.UserID}
	}
	if fileID, kind, ok := utils.ProofFromMessage(msg); ok {
		if kind == utils.ProofKindDocument && !utils.IsImage(msg.Document.MimeType) {
			log.Printf("EventFromUpdate: user %d sent a %q document as proof", msg.From.ID, msg.Document.MimeType)
		}
		ev.Attachment = &handlers.Attachment{FileID: fileID, Kind: kind}
	}
	return ev, true
}

func displayName(u *tgbotapi.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.UserName
	}
	return name
}

// Router turns one event into outbound intents.
type Router interface {
	Route(ctx context.Context, ev handlers.Event) []outbound.Intent
}

// Dispatcher handles each update in its own goroutine.
type Dispatcher struct {
	router Router
	sender Sender
	wg     sync.WaitGroup
}

func NewDispatcher(router Router, sender Sender) *Dispatcher {
	return &Dispatcher{router: router, sender: sender}
}

// Dispatch starts handling update and returns immediately.
func (d *Dispatcher) Dispatch(ctx context.Context, update tgbotapi.Update) {
	ev, ok := EventFromUpdate(update)
	if !ok {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Dispatch: PANIC handling update %d from %d: %v", update.UpdateID, ev.SenderID, r)
			}
		}()
		Deliver(d.sender, d.router.Route(ctx, ev))
	}()
}

// Poll dispatches updates until ctx is cancelled or the channel closes.
// Updates already dispatched run to completion after cancellation.
func (d *Dispatcher) Poll(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	handlerCtx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			d.Dispatch(handlerCtx, update)
		}
	}
}

// Wait blocks until every dispatched update is handled.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
