package formatters

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"tutorbot/internal/config"
	"tutorbot/internal/models"
	"tutorbot/internal/utils"
)

const (
	separator = "─ ─ ─ ─ ─ ─ ─ ─ ─ ─ ─ ─ ─"
)

func esc(s string) string { return utils.EscapeTelegramMarkdown(s) }

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return esc(s)
}

// FormatWelcome is the /start greeting.
func FormatWelcome(cfg *config.Config) string {
	return fmt.Sprintf("🎯 *Welcome to Tutorial Registration Bot!*\n\n"+
		"📚 Register for our comprehensive tutorials\n"+
		"💰 Registration fee: %s\n"+
		"🎁 Earn %s per referral\n\n"+
		"Start your registration journey!",
		utils.FormatMoney(cfg.RegistrationFee, cfg.Currency),
		utils.FormatMoney(cfg.ReferralReward, cfg.Currency))
}

// FormatHelp lists what the bot can do.
func FormatHelp(cfg *config.Config) string {
	var b strings.Builder
	b.WriteString("❓ *Help*\n\n")
	b.WriteString("1. Tap 📚 Register for Tutorial and type your full name.\n")
	b.WriteString("2. Choose your stream and payment method.\n")
	b.WriteString(fmt.Sprintf("3. Pay %s to the account shown and send the screenshot here.\n", utils.FormatMoney(cfg.RegistrationFee, cfg.Currency)))
	b.WriteString("4. An admin verifies your payment and you are in.\n\n")
	b.WriteString(fmt.Sprintf("🎁 Invite friends with your link. You earn %s when each of them is verified.\n", utils.FormatMoney(cfg.ReferralReward, cfg.Currency)))
	b.WriteString("💰 Withdraw your rewards to TeleBirr or CBE Birr at any time.\n\n")
	b.WriteString("Commands: /start, /help")
	return b.String()
}

// FormatRules is the static rules text.
func FormatRules() string {
	return "📌 *Rules*\n\n" +
		" •  One registration per Telegram account.\n" +
		" •  Send a clear screenshot of the completed payment.\n" +
		" •  Fake or edited screenshots are rejected.\n" +
		" •  Referral rewards are credited only for verified students.\n" +
		" •  The registration fee is not refundable."
}

// FormatNextStep reminds the user what the registration is waiting for.
func FormatNextStep(u models.User) string {
	switch u.Status {
	case models.StatusNew:
		return "Tap 📚 Register for Tutorial or type your full name to begin."
	case models.StatusCollectingName:
		return "✍️ Please type your *full name*."
	case models.StatusCollectingCategory:
		return "📖 Please choose your stream."
	case models.StatusCollectingPaymentMethod:
		return "💳 Please choose how you will pay the registration fee."
	case models.StatusAwaitingProof, models.StatusRejected:
		return "📤 Please send a screenshot of your payment."
	case models.StatusPendingVerification:
		return "⏳ Your payment is being verified. We will notify you soon."
	case models.StatusVerified:
		return "✅ You are already registered."
	}
	return ""
}

// FormatPaymentInstructions shows where to send the fee for the chosen method.
func FormatPaymentInstructions(cfg *config.Config, method models.PaymentMethod) string {
	payee, ok := cfg.Payee(string(method))
	if !ok {
		return "💳 Please choose a payment method."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("💳 *%s payment details*\n%s\n", esc(string(method)), separator))
	b.WriteString(fmt.Sprintf(" •  Account: `%s`\n", payee.Number))
	b.WriteString(fmt.Sprintf(" •  Name: %s\n", esc(payee.Name)))
	b.WriteString(fmt.Sprintf(" •  Amount: %s\n", utils.FormatMoney(cfg.RegistrationFee, cfg.Currency)))
	b.WriteString(separator + "\n")
	b.WriteString("After paying, tap 📤 Upload Payment Screenshot or just send the screenshot here.")
	return b.String()
}

// FormatProfile renders the user's own profile.
func FormatProfile(u models.User, currency string) string {
	var b strings.Builder
	b.WriteString("👤 *MY PROFILE*\n")
	b.WriteString(separator + "\n")
	b.WriteString(fmt.Sprintf(" •  Name: %s\n", esc(u.Name())))
	b.WriteString(fmt.Sprintf(" •  Phone: %s\n", orDash(u.Phone)))
	b.WriteString(fmt.Sprintf(" •  Stream: %s\n", orDash(string(u.Category))))
	b.WriteString(fmt.Sprintf(" •  Status: %s\n", esc(u.Status.Label())))
	b.WriteString(separator + "\n")
	b.WriteString(fmt.Sprintf(" •  Payment method: %s\n", orDash(string(u.PaymentMethod))))
	b.WriteString(fmt.Sprintf(" •  Account number: %s\n", orDash(u.AccountNumber)))
	b.WriteString(fmt.Sprintf(" •  Account name: %s\n", orDash(u.AccountName)))
	b.WriteString(separator + "\n")
	b.WriteString(fmt.Sprintf(" •  Referrals: %d\n", u.ReferralCount))
	b.WriteString(fmt.Sprintf(" •  Reward balance: %s", utils.FormatMoney(u.RewardBalance, currency)))
	return b.String()
}

// FormatSubmissionForAdmin is the caption on a forwarded payment screenshot.
func FormatSubmissionForAdmin(u models.User, sub models.PaymentSubmission, superseded bool) string {
	var b strings.Builder
	if superseded {
		b.WriteString("🔁 *Updated payment screenshot*\n")
	} else {
		b.WriteString("🆕 *New payment submission*\n")
	}
	b.WriteString(fmt.Sprintf("👤 %s (ID `%d`)\n", esc(u.Name()), u.ID))
	b.WriteString(fmt.Sprintf("📞 %s\n", orDash(u.Phone)))
	b.WriteString(fmt.Sprintf("📖 %s\n", orDash(string(u.Category))))
	b.WriteString(fmt.Sprintf("💳 %s\n", orDash(string(u.PaymentMethod))))
	b.WriteString(fmt.Sprintf("🧾 Submission `%s`", utils.ShortID(sub.ID.String())))
	return b.String()
}

// FormatUserDetails is the admin's read-only view of a user.
func FormatUserDetails(u models.User, subs []models.PaymentSubmission, referrals []models.User, currency string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📋 *User details* `%d`\n%s\n", u.ID, separator))
	b.WriteString(fmt.Sprintf(" •  Name: %s\n", esc(u.Name())))
	b.WriteString(fmt.Sprintf(" •  Telegram name: %s\n", orDash(u.DisplayName)))
	b.WriteString(fmt.Sprintf(" •  Phone: %s\n", orDash(u.Phone)))
	b.WriteString(fmt.Sprintf(" •  Stream: %s\n", orDash(string(u.Category))))
	b.WriteString(fmt.Sprintf(" •  Method: %s\n", orDash(string(u.PaymentMethod))))
	b.WriteString(fmt.Sprintf(" •  Status: %s\n", esc(u.Status.Label())))
	if u.ReferredBy != nil {
		b.WriteString(fmt.Sprintf(" •  Referred by: `%d`\n", *u.ReferredBy))
	}
	b.WriteString(fmt.Sprintf(" •  Referrals: %d, balance %s\n", u.ReferralCount, utils.FormatMoney(u.RewardBalance, currency)))
	b.WriteString(fmt.Sprintf(" •  Joined: %s\n", utils.FormatDate(u.CreatedAt)))
	if len(subs) > 0 {
		b.WriteString(separator + "\n🧾 *Submissions*\n")
		for _, s := range subs {
			b.WriteString(fmt.Sprintf(" •  `%s` %s, %s\n", utils.ShortID(s.ID.String()), s.Status, utils.FormatDate(s.CreatedAt)))
		}
	}
	if len(referrals) > 0 {
		b.WriteString(separator + "\n👥 *Invited users*\n")
		for _, r := range referrals {
			b.WriteString(fmt.Sprintf(" •  %s: %s\n", esc(r.Name()), esc(r.Status.Label())))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatStats renders the health projection for admins.
func FormatStats(st models.Stats) string {
	return fmt.Sprintf("📊 *Bot statistics*\n%s\n"+
		" •  Users: %d\n"+
		" •  Verified: %d\n"+
		" •  Pending payments: %d\n"+
		" •  Pending withdrawals: %d\n"+
		" •  Total referrals: %d",
		separator, st.Users, st.Verified, st.PendingSubmissions, st.PendingWithdrawals, st.Referrals)
}

// FormatLeaderboard lists the top referrers.
func FormatLeaderboard(top []models.User) string {
	if len(top) == 0 {
		return "📈 *Leaderboard*\n\nNo verified referrals yet. Be the first!"
	}
	medals := []string{"🥇", "🥈", "🥉"}
	var b strings.Builder
	b.WriteString("📈 *Leaderboard*\n" + separator + "\n")
	for i, u := range top {
		place := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			place = medals[i]
		}
		b.WriteString(fmt.Sprintf("%s %s: %d\n", place, esc(u.Name()), u.ReferralCount))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatReferrals lists the users invited by someone.
func FormatReferrals(u models.User, referred []models.User, currency string) string {
	var b strings.Builder
	b.WriteString("📊 *My Referrals*\n" + separator + "\n")
	if len(referred) == 0 {
		b.WriteString("You have not invited anyone yet. Tap 🎁 Invite & Earn to get your link.\n")
	}
	for _, r := range referred {
		mark := "⏳"
		if r.IsVerified() {
			mark = "✅"
		}
		b.WriteString(fmt.Sprintf("%s %s\n", mark, esc(r.Name())))
	}
	b.WriteString(separator + "\n")
	b.WriteString(fmt.Sprintf("Verified: %d\nBalance: %s", u.ReferralCount, utils.FormatMoney(u.RewardBalance, currency)))
	return b.String()
}

// FormatInvite is the referral-link message.
func FormatInvite(link string, reward decimal.Decimal, currency string) string {
	return fmt.Sprintf("🎁 *Invite & Earn*\n\n"+
		"Share your personal link. When a friend registers and is verified you earn %s.\n\n%s",
		utils.FormatMoney(reward, currency), esc(link))
}

// FormatWithdrawalForAdmin notifies admins about a payout to make.
func FormatWithdrawalForAdmin(u models.User, w models.WithdrawalRequest, currency string) string {
	var b strings.Builder
	b.WriteString("💸 *Withdrawal request*\n")
	b.WriteString(fmt.Sprintf("👤 %s (ID `%d`)\n", esc(u.Name()), u.ID))
	b.WriteString(fmt.Sprintf("💰 %s\n", utils.FormatMoney(w.Amount, currency)))
	b.WriteString(fmt.Sprintf("💳 %s, %s, %s\n", orDash(string(w.PaymentMethod)), orDash(w.AccountNumber), orDash(w.AccountName)))
	b.WriteString(fmt.Sprintf("🧾 `%s`", utils.ShortID(w.ID.String())))
	return b.String()
}

// FormatPendingWithdrawals lists unpaid requests for admins.
func FormatPendingWithdrawals(ws []models.WithdrawalRequest, currency string) string {
	if len(ws) == 0 {
		return "💸 No pending withdrawals."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("💸 *Pending withdrawals* (%d)\n%s\n", len(ws), separator))
	for _, w := range ws {
		b.WriteString(fmt.Sprintf(" •  `%d` %s via %s\n", w.UserID, utils.FormatMoney(w.Amount, currency), orDash(string(w.PaymentMethod))))
	}
	return strings.TrimRight(b.String(), "\n")
}
