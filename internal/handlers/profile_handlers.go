package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"

	"tutorbot/internal/constants"
	"tutorbot/internal/formatters"
	"tutorbot/internal/models"
	"tutorbot/internal/outbound"
	"tutorbot/internal/utils"
)

func (bh *BotHandler) handleMyProfile(ctx context.Context, ev Event, r *response) error {
	user, err := bh.Deps.Registration.Profile(ctx, ev.SenderID)
	if err != nil {
		return err
	}
	r.markdown(formatters.FormatProfile(user, bh.Deps.Config.Currency), profileKeyboard(user))
	return nil
}

// handleInviteEarn sends the referral link and its QR code.
func (bh *BotHandler) handleInviteEarn(ctx context.Context, ev Event, r *response) error {
	if _, err := bh.Deps.Registration.Profile(ctx, ev.SenderID); err != nil {
		return err
	}
	link, err := utils.GenerateReferralLink(bh.Deps.Config.BotUsername, ev.SenderID)
	if err != nil {
		log.Printf("handleInviteEarn: %v", err)
		r.text("⚠️ Referral links are not available right now.", nil)
		return nil
	}
	cfg := bh.Deps.Config
	r.markdown(formatters.FormatInvite(link, bh.Deps.Referrals.Reward(), cfg.Currency), nil)

	png, err := utils.GenerateQRCode(cfg.BotUsername, ev.SenderID)
	if err != nil {
		log.Printf("handleInviteEarn: QR for %d: %v", ev.SenderID, err)
		return nil
	}
	r.send(outbound.SendPhotoBytes(ev.ChatID, "referral_qr.png", png, "📲 Scan to join"))
	return nil
}

func (bh *BotHandler) handleLeaderboard(ctx context.Context, r *response) error {
	top, err := bh.Deps.Referrals.Leaderboard(ctx, constants.LeaderboardSize)
	if err != nil {
		return err
	}
	r.markdown(formatters.FormatLeaderboard(top), nil)
	return nil
}

func (bh *BotHandler) handleMyReferrals(ctx context.Context, ev Event, r *response) error {
	user, err := bh.Deps.Registration.Profile(ctx, ev.SenderID)
	if err != nil {
		return err
	}
	referred, err := bh.Deps.Referrals.Referrals(ctx, ev.SenderID)
	if err != nil {
		return err
	}
	r.markdown(formatters.FormatReferrals(user, referred, bh.Deps.Config.Currency), nil)
	return nil
}

func (bh *BotHandler) handleWithdrawPrompt(ctx context.Context, ev Event, r *response) error {
	user, err := bh.Deps.Registration.Profile(ctx, ev.SenderID)
	if err != nil {
		return err
	}
	currency := bh.Deps.Config.Currency
	if !user.RewardBalance.IsPositive() {
		r.text(fmt.Sprintf("💰 Your reward balance is %s. Invite friends to earn rewards!",
			utils.FormatMoney(user.RewardBalance, currency)), nil)
		return nil
	}
	bh.Deps.SessionManager.SetState(ev.ChatID, constants.STATE_AWAIT_WITHDRAW_AMOUNT)
	text := fmt.Sprintf("💰 Your balance is %s.\nEnter the amount to withdraw:", utils.FormatMoney(user.RewardBalance, currency))
	if user.AccountNumber == "" {
		text += "\n\nℹ️ You have no payout account yet. Set one with 💳 Change Payment Method."
	}
	r.text(text, outbound.ReplyKeyboard([]string{constants.BtnBackToMenu}))
	return nil
}

// handleWithdrawAmountInput reserves the amount and notifies admins.
func (bh *BotHandler) handleWithdrawAmountInput(ctx context.Context, ev Event, text string, r *response) error {
	amount, err := utils.ParseAmount(text)
	if err != nil {
		bh.Deps.SessionManager.SetState(ev.ChatID, constants.STATE_AWAIT_WITHDRAW_AMOUNT)
		return fmt.Errorf("%w: %v", models.ErrInvalidAmount, err)
	}
	req, user, err := bh.Deps.Withdrawals.RequestWithdrawal(ctx, ev.SenderID, amount)
	if err != nil {
		return err
	}
	cfg := bh.Deps.Config
	r.text(fmt.Sprintf("✅ Withdrawal of %s requested. Remaining balance: %s.",
		utils.FormatMoney(req.Amount, cfg.Currency), utils.FormatMoney(user.RewardBalance, cfg.Currency)),
		mainMenuKeyboard(&user))

	notice := formatters.FormatWithdrawalForAdmin(user, req, cfg.Currency)
	for _, adminID := range cfg.AdminChatIDs {
		r.send(outbound.SendMarkdown(adminID, notice).WithKeyboard(payoutKeyboard(req)))
	}
	return nil
}

func (bh *BotHandler) handleChangeMethodPrompt(ctx context.Context, ev Event, r *response) error {
	user, err := bh.Deps.Registration.Profile(ctx, ev.SenderID)
	if err != nil {
		return err
	}
	if !user.IsVerified() {
		return fmt.Errorf("change payout method while %s: %w", user.Status, models.ErrInvalidTransition)
	}
	r.text("💳 Choose where you want to receive your rewards:", payoutMethodKeyboard())
	return nil
}

func (bh *BotHandler) changePayoutMethod(ctx context.Context, ev Event, method models.PaymentMethod, r *response) error {
	if _, err := bh.Deps.Withdrawals.ChangePaymentMethod(ctx, ev.SenderID, method); err != nil {
		return err
	}
	bh.Deps.SessionManager.SetState(ev.ChatID, constants.STATE_AWAIT_ACCOUNT_NUMBER)
	r.text(fmt.Sprintf("✅ %s selected.\nEnter your %s account number:", method, method), outbound.RemoveKeyboard())
	return nil
}

func (bh *BotHandler) handleAccountNumberInput(ctx context.Context, ev Event, text string, r *response) error {
	if _, err := bh.Deps.Withdrawals.SetAccountNumber(ctx, ev.SenderID, text); err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			bh.Deps.SessionManager.SetState(ev.ChatID, constants.STATE_AWAIT_ACCOUNT_NUMBER)
		}
		return err
	}
	bh.Deps.SessionManager.SetState(ev.ChatID, constants.STATE_AWAIT_ACCOUNT_NAME)
	r.text("✅ Account number saved.\nEnter the account holder name:", nil)
	return nil
}

func (bh *BotHandler) handleAccountNameInput(ctx context.Context, ev Event, text string, r *response) error {
	user, err := bh.Deps.Withdrawals.SetAccountName(ctx, ev.SenderID, text)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			bh.Deps.SessionManager.SetState(ev.ChatID, constants.STATE_AWAIT_ACCOUNT_NAME)
		}
		return err
	}
	r.text("✅ Payout details updated.", nil)
	r.markdown(formatters.FormatProfile(user, bh.Deps.Config.Currency), profileKeyboard(user))
	return nil
}
