package handlers

import (
	"tutorbot/internal/constants"
	"tutorbot/internal/formatters"
	"tutorbot/internal/models"
	"tutorbot/internal/outbound"
)

// mainMenuKeyboard depends on whether the user is registered already.
func mainMenuKeyboard(u *models.User) *outbound.Keyboard {
	if u != nil && u.IsVerified() {
		return outbound.ReplyKeyboard(
			[]string{constants.BtnMyProfile, constants.BtnInviteEarn},
			[]string{constants.BtnWithdraw, constants.BtnMyReferrals},
			[]string{constants.BtnLeaderboard, constants.BtnChangeMethod},
			[]string{constants.BtnHelp, constants.BtnRules},
		)
	}
	return outbound.ReplyKeyboard(
		[]string{constants.BtnRegister, constants.BtnMyProfile},
		[]string{constants.BtnPayFee, constants.BtnUploadScreenshot},
		[]string{constants.BtnInviteEarn, constants.BtnLeaderboard},
		[]string{constants.BtnHelp, constants.BtnRules},
	)
}

func nameKeyboard() *outbound.Keyboard {
	return &outbound.Keyboard{Reply: [][]outbound.ReplyButton{
		{{Text: constants.BtnShareContact, RequestContact: true}},
		{{Text: constants.BtnStartOver}, {Text: constants.BtnBackToMenu}},
	}}
}

func categoryKeyboard() *outbound.Keyboard {
	return outbound.InlineKeyboard(
		[]outbound.InlineButton{outbound.Data("📘 Social Science", constants.CallbackSelectSocial)},
		[]outbound.InlineButton{outbound.Data("🔬 Natural Science", constants.CallbackSelectNatural)},
	)
}

func paymentMethodKeyboard() *outbound.Keyboard {
	return outbound.InlineKeyboard(
		[]outbound.InlineButton{
			outbound.Data(constants.BtnTeleBirr, constants.CallbackPaymentTeleBirr),
			outbound.Data(constants.BtnCBEBirr, constants.CallbackPaymentCBE),
		},
	)
}

func payoutMethodKeyboard() *outbound.Keyboard {
	return outbound.ReplyKeyboard(
		[]string{constants.BtnTeleBirr, constants.BtnCBEBirr},
		[]string{constants.BtnBackToMenu},
	)
}

func proofKeyboard() *outbound.Keyboard {
	return outbound.ReplyKeyboard(
		[]string{constants.BtnUploadScreenshot},
		[]string{constants.BtnBackToMethod, constants.BtnStartOver},
		[]string{constants.BtnBackToMenu},
	)
}

func profileKeyboard(u models.User) *outbound.Keyboard {
	if !u.IsVerified() {
		return outbound.ReplyKeyboard(
			[]string{constants.BtnSubmit},
			[]string{constants.BtnMyReferrals, constants.BtnBackToMenu},
		)
	}
	return outbound.ReplyKeyboard(
		[]string{constants.BtnWithdraw, constants.BtnChangeMethod},
		[]string{constants.BtnMyReferrals, constants.BtnBackToMenu},
	)
}

func decisionKeyboard(sub models.PaymentSubmission) *outbound.Keyboard {
	return outbound.InlineKeyboard(
		[]outbound.InlineButton{
			outbound.Data("✅ Approve", constants.CallbackAdminApprovePrefix+sub.ID.String()),
			outbound.Data("❌ Reject", constants.CallbackAdminRejectPrefix+sub.ID.String()),
		},
		[]outbound.InlineButton{
			outbound.Data("📋 Details", constants.CallbackAdminDetailsPrefix+itoa(sub.UserID)),
		},
	)
}

func payoutKeyboard(w models.WithdrawalRequest) *outbound.Keyboard {
	return outbound.InlineKeyboard(
		[]outbound.InlineButton{outbound.Data("💸 Mark as paid", constants.CallbackWithdrawPaidPrefix+w.ID.String())},
	)
}

func adminPanelKeyboard() *outbound.Keyboard {
	return outbound.InlineKeyboard(
		[]outbound.InlineButton{outbound.Data("🧾 Pending payments", constants.CallbackAdminPending)},
		[]outbound.InlineButton{outbound.Data("💸 Pending withdrawals", constants.CallbackAdminPayouts)},
		[]outbound.InlineButton{outbound.Data("📥 Export to Excel", constants.CallbackAdminExport)},
	)
}

// promptFor re-presents the step the user is on, with the matching keyboard.
func (bh *BotHandler) promptFor(u models.User, r *response) {
	switch u.Status {
	case models.StatusNew:
		r.text(formatters.FormatNextStep(u), mainMenuKeyboard(&u))
	case models.StatusCollectingName:
		r.markdown(formatters.FormatNextStep(u)+"\n\nYou can also share your phone number.", nameKeyboard())
	case models.StatusCollectingCategory:
		r.markdown(formatters.FormatNextStep(u), categoryKeyboard())
	case models.StatusCollectingPaymentMethod:
		r.markdown(formatters.FormatNextStep(u), paymentMethodKeyboard())
	case models.StatusAwaitingProof, models.StatusRejected:
		r.markdown(formatters.FormatPaymentInstructions(bh.Deps.Config, u.PaymentMethod), proofKeyboard())
	default:
		r.markdown(formatters.FormatNextStep(u), mainMenuKeyboard(&u))
	}
}
