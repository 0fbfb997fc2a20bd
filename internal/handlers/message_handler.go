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

func (bh *BotHandler) handleSlash(ctx context.Context, ev Event, c SlashCommand, r *response) error {
	switch c.Name {
	case constants.CommandStart:
		return bh.handleStart(ctx, ev, c.Args, r)
	case constants.CommandAdmin:
		return bh.handleAdminPanel(ctx, ev, r)
	case constants.CommandHelp:
		r.markdown(formatters.FormatHelp(bh.Deps.Config), nil)
		return nil
	case constants.CommandStats:
		return bh.handleAdminStats(ctx, ev, r)
	}
	log.Printf("handleSlash: unknown command /%s from %d, showing main menu", c.Name, ev.SenderID)
	return bh.showMainMenu(ctx, ev, r)
}

// handleStart creates the user on first contact and links the referrer from the payload.
func (bh *BotHandler) handleStart(ctx context.Context, ev Event, payload string, r *response) error {
	bh.Deps.SessionManager.ClearState(ev.ChatID)
	referrerID := utils.ParseReferralPayload(payload)

	user, created, err := bh.Deps.Registration.Start(ctx, ev.SenderID, ev.ChatID, ev.SenderName, referrerID)
	if err != nil {
		return err
	}
	r.markdown(formatters.FormatWelcome(bh.Deps.Config), mainMenuKeyboard(&user))

	if created && user.ReferredBy != nil {
		referrer, err := bh.Deps.Registration.Profile(ctx, *user.ReferredBy)
		if err != nil {
			log.Printf("handleStart: referrer %d of %d not loaded: %v", *user.ReferredBy, user.ID, err)
			return nil
		}
		r.send(outbound.SendText(referrer.ChatID, fmt.Sprintf(
			"👋 %s joined through your link. You will earn %s once they are verified.",
			user.Name(), utils.FormatMoney(bh.Deps.Referrals.Reward(), bh.Deps.Config.Currency))))
	}
	return nil
}

func (bh *BotHandler) showMainMenu(ctx context.Context, ev Event, r *response) error {
	bh.Deps.SessionManager.ClearState(ev.ChatID)
	user, err := bh.Deps.Registration.Profile(ctx, ev.SenderID)
	if err != nil && !errors.Is(err, models.ErrUnknownUser) {
		return err
	}
	var u *models.User
	if err == nil {
		u = &user
	}
	r.text("🏠 Main menu", mainMenuKeyboard(u))
	return nil
}

// handleButton serves menu keys. Any key abandons a pending text prompt;
// handlers that ask for text set the state again.
func (bh *BotHandler) handleButton(ctx context.Context, ev Event, c ButtonCommand, r *response) error {
	bh.Deps.SessionManager.ClearState(ev.ChatID)
	switch c.Button {
	case ButtonRegister:
		return bh.handleRegister(ctx, ev, r)
	case ButtonMyProfile:
		return bh.handleMyProfile(ctx, ev, r)
	case ButtonInviteEarn:
		return bh.handleInviteEarn(ctx, ev, r)
	case ButtonLeaderboard:
		return bh.handleLeaderboard(ctx, r)
	case ButtonHelp:
		r.markdown(formatters.FormatHelp(bh.Deps.Config), nil)
		return nil
	case ButtonRules:
		r.markdown(formatters.FormatRules(), nil)
		return nil
	case ButtonPayFee, ButtonSubmit:
		return bh.handleResume(ctx, ev, r)
	case ButtonUploadScreenshot:
		return bh.handleUploadPrompt(ctx, ev, r)
	case ButtonWithdraw:
		return bh.handleWithdrawPrompt(ctx, ev, r)
	case ButtonChangeMethod:
		return bh.handleChangeMethodPrompt(ctx, ev, r)
	case ButtonMyReferrals:
		return bh.handleMyReferrals(ctx, ev, r)
	case ButtonStartOver:
		user, err := bh.Deps.Registration.StartOver(ctx, ev.SenderID)
		if err != nil {
			return err
		}
		r.text("🔄 Registration restarted.", nil)
		bh.promptFor(user, r)
		return nil
	case ButtonBackToMethod:
		user, err := bh.Deps.Registration.BackToPaymentMethod(ctx, ev.SenderID)
		if err != nil {
			return err
		}
		bh.promptFor(user, r)
		return nil
	case ButtonBackToMenu:
		return bh.showMainMenu(ctx, ev, r)
	case ButtonTeleBirr:
		return bh.handleMethodLabel(ctx, ev, models.PaymentMethodTeleBirr, r)
	case ButtonCBEBirr:
		return bh.handleMethodLabel(ctx, ev, models.PaymentMethodCBEBirr, r)
	}
	return fmt.Errorf("unhandled button %q", c.Label)
}

// handleRegister starts registration for new users and re-prompts everyone else.
func (bh *BotHandler) handleRegister(ctx context.Context, ev Event, r *response) error {
	user, err := bh.Deps.Registration.Profile(ctx, ev.SenderID)
	if err != nil {
		return err
	}
	if user.Status == models.StatusNew {
		if user, err = bh.Deps.Registration.BeginRegistration(ctx, ev.SenderID); err != nil {
			return err
		}
		r.markdown("📚 *Tutorial Registration*\n\n✍️ Please enter your *full name*:", nameKeyboard())
		return nil
	}
	bh.promptFor(user, r)
	return nil
}

func (bh *BotHandler) handleResume(ctx context.Context, ev Event, r *response) error {
	user, err := bh.Deps.Registration.Profile(ctx, ev.SenderID)
	if err != nil {
		return err
	}
	bh.promptFor(user, r)
	return nil
}

func (bh *BotHandler) handleUploadPrompt(ctx context.Context, ev Event, r *response) error {
	user, err := bh.Deps.Registration.Profile(ctx, ev.SenderID)
	if err != nil {
		return err
	}
	if !user.Status.AcceptsProof() {
		bh.promptFor(user, r)
		return nil
	}
	r.text("📤 Send your payment screenshot now, as a photo or a file.", proofKeyboard())
	return nil
}

// handleMethodLabel serves the 📱/🏦 keys: a registration choice while the fee is
// unpaid, a payout destination change once verified.
func (bh *BotHandler) handleMethodLabel(ctx context.Context, ev Event, method models.PaymentMethod, r *response) error {
	user, err := bh.Deps.Registration.Profile(ctx, ev.SenderID)
	if err != nil {
		return err
	}
	if user.IsVerified() {
		return bh.changePayoutMethod(ctx, ev, method, r)
	}
	if user, err = bh.Deps.Registration.SelectPaymentMethod(ctx, ev.SenderID, method); err != nil {
		return err
	}
	r.text(fmt.Sprintf("✅ %s selected", method), nil)
	bh.promptFor(user, r)
	return nil
}

func (bh *BotHandler) handleContact(ctx context.Context, ev Event, c ContactCommand, r *response) error {
	if c.Contact.UserID != 0 && c.Contact.UserID != ev.SenderID {
		r.text("📞 Please share your own contact using the button.", nameKeyboard())
		return nil
	}
	user, err := bh.Deps.Registration.SetPhone(ctx, ev.SenderID, c.Contact.PhoneNumber)
	if err != nil {
		return err
	}
	r.text("✅ Phone number saved.", nil)
	bh.promptFor(user, r)
	return nil
}

// handleAttachment records a payment screenshot and forwards it to every admin.
func (bh *BotHandler) handleAttachment(ctx context.Context, ev Event, c AttachmentCommand, r *response) error {
	sub, user, superseded, err := bh.Deps.Registration.UploadProof(ctx, ev.SenderID, c.Attachment.FileID, c.Attachment.Kind)
	if err != nil {
		return err
	}
	if superseded {
		r.text("🔁 Your screenshot was updated. Verification is pending.", mainMenuKeyboard(&user))
	} else {
		r.text("✅ Payment screenshot received! An admin will verify it shortly.", mainMenuKeyboard(&user))
	}

	caption := formatters.FormatSubmissionForAdmin(user, sub, superseded)
	for _, adminID := range bh.Deps.Config.AdminChatIDs {
		r.send(proofIntent(adminID, sub, caption).AsMarkdown().WithKeyboard(decisionKeyboard(sub)))
	}
	return nil
}

func proofIntent(chatID int64, sub models.PaymentSubmission, caption string) outbound.Intent {
	if sub.ProofKind == utils.ProofKindDocument {
		return outbound.SendDocumentID(chatID, sub.ProofRef, caption)
	}
	return outbound.SendPhotoID(chatID, sub.ProofRef, caption)
}

// handleFreeText reads text by the chat's input state; with no pending prompt
// it is a registration field entry.
func (bh *BotHandler) handleFreeText(ctx context.Context, ev Event, c FreeTextCommand, r *response) error {
	if c.Text == "" {
		return nil
	}
	switch state := bh.Deps.SessionManager.TakeState(ev.ChatID); state {
	case constants.STATE_AWAIT_ACCOUNT_NUMBER:
		return bh.handleAccountNumberInput(ctx, ev, c.Text, r)
	case constants.STATE_AWAIT_ACCOUNT_NAME:
		return bh.handleAccountNameInput(ctx, ev, c.Text, r)
	case constants.STATE_AWAIT_WITHDRAW_AMOUNT:
		return bh.handleWithdrawAmountInput(ctx, ev, c.Text, r)
	}

	user, err := bh.Deps.Registration.SubmitName(ctx, ev.SenderID, c.Text)
	if err != nil {
		return err
	}
	r.markdown(fmt.Sprintf("👋 Nice to meet you, %s!", utils.EscapeTelegramMarkdown(user.FullName)), outbound.RemoveKeyboard())
	bh.promptFor(user, r)
	return nil
}
