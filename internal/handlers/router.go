package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"tutorbot/internal/constants"
	"tutorbot/internal/models"
	"tutorbot/internal/outbound"
)

// errUnknownTarget is an admin lookup of a user id that does not exist.
// It is reported as missing data, not as the sender needing /start.
var errUnknownTarget = fmt.Errorf("referenced %w", models.ErrUnknownUser)

// response collects what one event produces. For callbacks, toast is the
// answer text shown on the client; alert turns it into a dialog.
type response struct {
	chatID  int64
	intents []outbound.Intent
	toast   string
	alert   bool
}

func (r *response) send(i ...outbound.Intent) {
	r.intents = append(r.intents, i...)
}

func (r *response) text(text string, kb *outbound.Keyboard) {
	r.send(outbound.SendText(r.chatID, text).WithKeyboard(kb))
}

func (r *response) markdown(text string, kb *outbound.Keyboard) {
	r.send(outbound.SendMarkdown(r.chatID, text).WithKeyboard(kb))
}

// Route classifies ev, runs its handler and returns the intents to deliver.
// It is the only error boundary: handler errors never escape, they become
// one short reply. Callbacks are always answered exactly once.
func (bh *BotHandler) Route(ctx context.Context, ev Event) []outbound.Intent {
	cmd := Classify(ev)
	log.Printf("Route: sender=%d chat=%d kind=%s", ev.SenderID, ev.ChatID, cmd.Kind())

	r := &response{chatID: ev.ChatID}
	if err := bh.dispatch(ctx, ev, cmd, r); err != nil {
		bh.fail(ev, cmd, err, r)
	}

	if ev.IsCallback {
		answer := outbound.AnswerCallback(ev.CallbackID, r.toast)
		answer.Alert = r.alert
		r.intents = append([]outbound.Intent{answer}, r.intents...)
	}
	return r.intents
}

func (bh *BotHandler) dispatch(ctx context.Context, ev Event, cmd Command, r *response) error {
	switch c := cmd.(type) {
	case SlashCommand:
		return bh.handleSlash(ctx, ev, c, r)
	case CallbackCommand:
		return bh.handleCallback(ctx, ev, c, r)
	case ContactCommand:
		return bh.handleContact(ctx, ev, c, r)
	case AttachmentCommand:
		return bh.handleAttachment(ctx, ev, c, r)
	case ButtonCommand:
		return bh.handleButton(ctx, ev, c, r)
	case FreeTextCommand:
		return bh.handleFreeText(ctx, ev, c, r)
	}
	return fmt.Errorf("unhandled command %T", cmd)
}

// fail turns a handler error into the single user-visible acknowledgement.
func (bh *BotHandler) fail(ev Event, cmd Command, err error, r *response) {
	text, benign := replyForError(err)
	if benign {
		log.Printf("Route: sender=%d kind=%s: %v", ev.SenderID, cmd.Kind(), err)
	} else {
		log.Printf("Route: ERROR sender=%d chat=%d kind=%s: %v", ev.SenderID, ev.ChatID, cmd.Kind(), err)
	}
	if ev.IsCallback {
		r.toast = text
		r.alert = !errors.Is(err, models.ErrInvalidTransition)
		return
	}
	r.text(text, nil)
}

// replyForError maps an error kind to user-facing text.
// benign reports whether the error is an expected outcome rather than a fault.
func replyForError(err error) (text string, benign bool) {
	switch {
	case errors.Is(err, models.ErrInvalidTransition):
		return "ℹ️ That action is not available at this step.", true
	case errors.Is(err, models.ErrAlreadyProcessed):
		return "⚠️ This request was already processed.", true
	case errors.Is(err, models.ErrInsufficientBalance):
		return "❌ The amount is more than your reward balance.", true
	case errors.Is(err, models.ErrInvalidAmount):
		return "❌ Please enter a valid positive amount.", true
	case errors.Is(err, errUnknownTarget):
		return "⚠️ User not found.", true
	case errors.Is(err, models.ErrUnknownUser):
		return "👋 Please send /start to begin.", true
	case errors.Is(err, models.ErrUnknownSubmission), errors.Is(err, models.ErrUnknownWithdrawal):
		return "⚠️ Record not found.", true
	case errors.Is(err, models.ErrNotAdmin):
		return "⛔ This action is for admins only.", true
	case errors.Is(err, models.ErrInvalidInput):
		detail := strings.TrimPrefix(err.Error(), models.ErrInvalidInput.Error())
		detail = strings.TrimPrefix(detail, ": ")
		if detail == "" {
			return "❌ Invalid input. Please try again.", true
		}
		return fmt.Sprintf("❌ Invalid input: %s. Please try again.", detail), true
	}
	return constants.GenericErrorText, false
}
