package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"tutorbot/internal/constants"
	"tutorbot/internal/formatters"
	"tutorbot/internal/models"
	"tutorbot/internal/outbound"
	"tutorbot/internal/reports"
	"tutorbot/internal/utils"
)

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func (bh *BotHandler) requireAdmin(ev Event) error {
	if !bh.Deps.Moderation.IsAdmin(ev.SenderID) {
		return models.ErrNotAdmin
	}
	return nil
}

func (bh *BotHandler) handleAdminPanel(ctx context.Context, ev Event, r *response) error {
	if err := bh.requireAdmin(ev); err != nil {
		return err
	}
	st, err := bh.Deps.Moderation.Stats(ctx)
	if err != nil {
		return err
	}
	r.markdown("🛠 *Admin panel*\n\n"+formatters.FormatStats(st), adminPanelKeyboard())
	return nil
}

func (bh *BotHandler) handleAdminStats(ctx context.Context, ev Event, r *response) error {
	if err := bh.requireAdmin(ev); err != nil {
		return err
	}
	st, err := bh.Deps.Moderation.Stats(ctx)
	if err != nil {
		return err
	}
	r.markdown(formatters.FormatStats(st), nil)
	return nil
}

// handleAdminApprove verifies the student and tells everyone involved.
func (bh *BotHandler) handleAdminApprove(ctx context.Context, ev Event, c CallbackCommand, r *response) error {
	d, err := bh.Deps.Moderation.Approve(ctx, c.SubmissionID, ev.SenderID)
	if err != nil {
		return err
	}
	cfg := bh.Deps.Config
	r.toast = "✅ Approved"
	r.text(fmt.Sprintf("✅ Payment of %s (ID %d) approved.", d.User.Name(), d.User.ID), nil)
	r.send(outbound.SendMarkdown(d.User.ChatID,
		"🎉 *Payment verified!*\n\nYour tutorial registration is complete. Welcome aboard!").
		WithKeyboard(mainMenuKeyboard(&d.User)))
	if d.Referrer != nil {
		r.send(outbound.SendText(d.Referrer.ChatID, fmt.Sprintf(
			"🎉 %s was verified! You earned %s.\nReferrals: %d, balance: %s",
			d.User.Name(), utils.FormatMoney(bh.Deps.Referrals.Reward(), cfg.Currency),
			d.Referrer.ReferralCount, utils.FormatMoney(d.Referrer.RewardBalance, cfg.Currency))))
	}
	return nil
}

func (bh *BotHandler) handleAdminReject(ctx context.Context, ev Event, c CallbackCommand, r *response) error {
	d, err := bh.Deps.Moderation.Reject(ctx, c.SubmissionID, ev.SenderID)
	if err != nil {
		return err
	}
	r.toast = "❌ Rejected"
	r.text(fmt.Sprintf("❌ Payment of %s (ID %d) rejected.", d.User.Name(), d.User.ID), nil)
	r.send(outbound.SendText(d.User.ChatID,
		"❌ Your payment screenshot could not be verified.\nPlease check the payment and upload a new screenshot.").
		WithKeyboard(proofKeyboard()))
	return nil
}

func (bh *BotHandler) handleAdminDetails(ctx context.Context, ev Event, userID int64, r *response) error {
	details, err := bh.Deps.Moderation.Details(ctx, ev.SenderID, userID)
	if errors.Is(err, models.ErrUnknownUser) {
		return fmt.Errorf("details of %d: %w", userID, errUnknownTarget)
	}
	if err != nil {
		return err
	}
	r.markdown(formatters.FormatUserDetails(details.User, details.Submissions, details.Referrals, bh.Deps.Config.Currency), nil)
	return nil
}

// handleAdminQueue re-sends the oldest pending screenshots with decision buttons.
func (bh *BotHandler) handleAdminQueue(ctx context.Context, ev Event, r *response) error {
	queue, err := bh.Deps.Moderation.PendingQueue(ctx, ev.SenderID)
	if err != nil {
		return err
	}
	if len(queue) == 0 {
		r.toast = "No pending payments"
		r.text("🧾 No pending payments.", nil)
		return nil
	}
	r.text(fmt.Sprintf("🧾 Pending payments: %d", len(queue)), nil)
	if len(queue) > constants.AdminQueueLimit {
		queue = queue[:constants.AdminQueueLimit]
	}
	for _, sub := range queue {
		user, err := bh.Deps.Registration.Profile(ctx, sub.UserID)
		if err != nil {
			log.Printf("handleAdminQueue: user %d of submission %s: %v", sub.UserID, sub.ID, err)
			continue
		}
		caption := formatters.FormatSubmissionForAdmin(user, sub, false)
		r.send(proofIntent(ev.ChatID, sub, caption).AsMarkdown().WithKeyboard(decisionKeyboard(sub)))
	}
	return nil
}

func (bh *BotHandler) handleAdminPayouts(ctx context.Context, ev Event, r *response) error {
	if err := bh.requireAdmin(ev); err != nil {
		return err
	}
	pending, err := bh.Deps.Withdrawals.Pending(ctx)
	if err != nil {
		return err
	}
	cfg := bh.Deps.Config
	r.markdown(formatters.FormatPendingWithdrawals(pending, cfg.Currency), nil)
	if len(pending) > constants.AdminQueueLimit {
		pending = pending[:constants.AdminQueueLimit]
	}
	for _, w := range pending {
		user, err := bh.Deps.Registration.Profile(ctx, w.UserID)
		if err != nil {
			log.Printf("handleAdminPayouts: user %d of request %s: %v", w.UserID, w.ID, err)
			continue
		}
		r.send(outbound.SendMarkdown(ev.ChatID, formatters.FormatWithdrawalForAdmin(user, w, cfg.Currency)).
			WithKeyboard(payoutKeyboard(w)))
	}
	return nil
}

func (bh *BotHandler) handleWithdrawPaid(ctx context.Context, ev Event, c CallbackCommand, r *response) error {
	w, err := bh.Deps.Withdrawals.MarkPaid(ctx, c.WithdrawalID, ev.SenderID)
	if err != nil {
		return err
	}
	cfg := bh.Deps.Config
	r.toast = "💸 Marked as paid"
	user, err := bh.Deps.Registration.Profile(ctx, w.UserID)
	if err != nil {
		log.Printf("handleWithdrawPaid: user %d: %v", w.UserID, err)
		return nil
	}
	r.send(outbound.SendText(user.ChatID, fmt.Sprintf("💸 Your withdrawal of %s has been paid to %s.",
		utils.FormatMoney(w.Amount, cfg.Currency), w.PaymentMethod)))
	return nil
}

// handleAdminExport sends every record as an Excel workbook.
func (bh *BotHandler) handleAdminExport(ctx context.Context, ev Event, r *response) error {
	snap, err := bh.Deps.Moderation.Export(ctx, ev.SenderID)
	if err != nil {
		return err
	}
	data, err := reports.BuildWorkbook(snap.Users, snap.Submissions, snap.Withdrawals)
	if err != nil {
		return err
	}
	now := time.Now()
	r.toast = "📥 Export ready"
	r.send(outbound.SendDocumentBytes(ev.ChatID, reports.ExportFileName(now), data,
		fmt.Sprintf("Report for %s", now.Format("02.01.2006"))))
	return nil
}
