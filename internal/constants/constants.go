package constants

// Chat input states kept in the session manager.
// They only tell the router how to read the next free-text message;
// onboarding progress lives on the user record.
const (
	STATE_IDLE                  = "idle"
	STATE_AWAIT_ACCOUNT_NUMBER  = "await_account_number"
	STATE_AWAIT_ACCOUNT_NAME    = "await_account_name"
	STATE_AWAIT_WITHDRAW_AMOUNT = "await_withdraw_amount"
)

// Commands
const (
	CommandStart = "start"
	CommandAdmin = "admin"
	CommandHelp  = "help"
	CommandStats = "stats"
)

// Reply keyboard labels. Matching is exact.
const (
	BtnRegister         = "📚 Register for Tutorial"
	BtnMyProfile        = "👤 My Profile"
	BtnInviteEarn       = "🎁 Invite & Earn"
	BtnLeaderboard      = "📈 Leaderboard"
	BtnHelp             = "❓ Help"
	BtnRules            = "📌 Rules"
	BtnPayFee           = "💰 Pay Tutorial Fee"
	BtnUploadScreenshot = "📤 Upload Payment Screenshot"
	BtnUploadAlt        = "📎 Upload Payment Screenshot"
	BtnWithdraw         = "💰 Withdraw Rewards"
	BtnChangeMethod     = "💳 Change Payment Method"
	BtnMyReferrals      = "📊 My Referrals"
	BtnSubmit           = "✅ SUBMIT REGISTRATION"
	BtnStartOver        = "🔄 START OVER"
	BtnBackToMethod     = "🔙 Change Payment Method"
	BtnBackToMenu       = "🔙 Back to Menu"
	BtnTeleBirr         = "📱 TeleBirr"
	BtnCBEBirr          = "🏦 CBE Birr"
	BtnShareContact     = "📞 Share Phone Number"
)

// Callback data. Prefixed values carry an id after the prefix.
const (
	CallbackSelectSocial    = "select_social"
	CallbackSelectNatural   = "select_natural"
	CallbackPaymentTeleBirr = "payment_telebirr"
	CallbackPaymentCBE      = "payment_cbe"
	CallbackAdminExport     = "admin_export"
	CallbackAdminPending    = "admin_pending"
	CallbackAdminPayouts    = "admin_payouts"

	CallbackAdminApprovePrefix = "admin_approve_"
	CallbackAdminRejectPrefix  = "admin_reject_"
	CallbackAdminDetailsPrefix = "admin_details_"
	CallbackWithdrawPaidPrefix = "withdraw_paid_"
)

// Fixed texts
const (
	GenericErrorText = "❌ An error occurred. Please try again."
	LeaderboardSize  = 10
	AdminQueueLimit  = 10
)
