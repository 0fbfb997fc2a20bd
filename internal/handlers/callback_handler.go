package handlers

import (
	"context"
	"fmt"
	"log"

	"tutorbot/internal/models"
)

// handleCallback serves inline buttons. Registration callbacks apply to the
// presser; admin callbacks check rights inside the services.
func (bh *BotHandler) handleCallback(ctx context.Context, ev Event, c CallbackCommand, r *response) error {
	if c.Err != nil {
		if err := bh.requireAdmin(ev); err != nil {
			return err
		}
		log.Printf("handleCallback: malformed data %q from %d", c.Raw, ev.SenderID)
		return c.Err
	}
	switch c.Action {
	case CallbackSelectCategory:
		user, err := bh.Deps.Registration.SelectCategory(ctx, ev.SenderID, c.Category)
		if err != nil {
			return err
		}
		r.toast = fmt.Sprintf("✅ %s selected", c.Category)
		bh.promptFor(user, r)
		return nil
	case CallbackSelectMethod:
		user, err := bh.Deps.Registration.SelectPaymentMethod(ctx, ev.SenderID, c.Method)
		if err != nil {
			return err
		}
		r.toast = fmt.Sprintf("✅ %s selected", c.Method)
		bh.promptFor(user, r)
		return nil
	case CallbackApprove:
		return bh.handleAdminApprove(ctx, ev, c, r)
	case CallbackReject:
		return bh.handleAdminReject(ctx, ev, c, r)
	case CallbackDetails:
		return bh.handleAdminDetails(ctx, ev, c.UserID, r)
	case CallbackWithdrawPaid:
		return bh.handleWithdrawPaid(ctx, ev, c, r)
	case CallbackExport:
		return bh.handleAdminExport(ctx, ev, r)
	case CallbackPendingQueue:
		return bh.handleAdminQueue(ctx, ev, r)
	case CallbackPendingPayouts:
		return bh.handleAdminPayouts(ctx, ev, r)
	case CallbackUnknown:
		log.Printf("handleCallback: unknown data %q from %d", c.Raw, ev.SenderID)
		return fmt.Errorf("callback %q: %w", c.Raw, models.ErrInvalidTransition)
	}
	return fmt.Errorf("unhandled callback action %d", c.Action)
}
