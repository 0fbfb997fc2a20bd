package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"tutorbot/internal/constants"
	"tutorbot/internal/models"
)

// Contact is a shared phone number.
type Contact struct {
	PhoneNumber string
	UserID      int64
}

// Attachment is an uploaded photo or document.
type Attachment struct {
	FileID string
	Kind   string // utils.ProofKindPhoto or utils.ProofKindDocument
}

// Event is one decoded inbound update: either a message or a callback.
type Event struct {
	SenderID   int64
	ChatID     int64
	SenderName string

	Text       string
	Contact    *Contact
	Attachment *Attachment

	IsCallback   bool
	CallbackID   string
	CallbackData string
}

// Command is the closed set of things an Event can mean.
// Every Event classifies to exactly one Command.
type Command interface {
	isCommand()
	Kind() string
}

// SlashCommand is "/name args".
type SlashCommand struct {
	Name string
	Args string
}

// CallbackAction enumerates inline button payloads.
type CallbackAction int

const (
	CallbackUnknown CallbackAction = iota
	CallbackSelectCategory
	CallbackSelectMethod
	CallbackApprove
	CallbackReject
	CallbackDetails
	CallbackWithdrawPaid
	CallbackExport
	CallbackPendingQueue
	CallbackPendingPayouts
)

// CallbackCommand is a parsed inline button press. Only the fields for Action are set.
type CallbackCommand struct {
	Action       CallbackAction
	Category     models.Category
	Method       models.PaymentMethod
	SubmissionID uuid.UUID
	WithdrawalID uuid.UUID
	UserID       int64
	Raw          string
	// Err is set when a known prefix carries an id that does not parse.
	Err          error
}

// ContactCommand is a shared contact.
type ContactCommand struct{ Contact Contact }

// AttachmentCommand is a photo or document upload.
type AttachmentCommand struct{ Attachment Attachment }

// Button is a recognized reply-keyboard label.
type Button int

const (
	ButtonRegister Button = iota + 1
	ButtonMyProfile
	ButtonInviteEarn
	ButtonLeaderboard
	ButtonHelp
	ButtonRules
	ButtonPayFee
	ButtonUploadScreenshot
	ButtonWithdraw
	ButtonChangeMethod
	ButtonMyReferrals
	ButtonSubmit
	ButtonStartOver
	ButtonBackToMethod
	ButtonBackToMenu
	ButtonTeleBirr
	ButtonCBEBirr
)

// buttonLabels maps exact labels to buttons. Both upload labels share one button.
var buttonLabels = map[string]Button{
	constants.BtnRegister:         ButtonRegister,
	constants.BtnMyProfile:        ButtonMyProfile,
	constants.BtnInviteEarn:       ButtonInviteEarn,
	constants.BtnLeaderboard:      ButtonLeaderboard,
	constants.BtnHelp:             ButtonHelp,
	constants.BtnRules:            ButtonRules,
	constants.BtnPayFee:           ButtonPayFee,
	constants.BtnUploadScreenshot: ButtonUploadScreenshot,
	constants.BtnUploadAlt:        ButtonUploadScreenshot,
	constants.BtnWithdraw:         ButtonWithdraw,
	constants.BtnChangeMethod:     ButtonChangeMethod,
	constants.BtnMyReferrals:      ButtonMyReferrals,
	constants.BtnSubmit:           ButtonSubmit,
	constants.BtnStartOver:        ButtonStartOver,
	constants.BtnBackToMethod:     ButtonBackToMethod,
	constants.BtnBackToMenu:       ButtonBackToMenu,
	constants.BtnTeleBirr:         ButtonTeleBirr,
	constants.BtnCBEBirr:          ButtonCBEBirr,
}

// ButtonCommand is a recognized reply-keyboard label.
type ButtonCommand struct {
	Button Button
	Label  string
}

// FreeTextCommand is any other text, including empty text.
type FreeTextCommand struct{ Text string }

func (SlashCommand) isCommand()      {}
func (CallbackCommand) isCommand()   {}
func (ContactCommand) isCommand()    {}
func (AttachmentCommand) isCommand() {}
func (ButtonCommand) isCommand()     {}
func (FreeTextCommand) isCommand()   {}

func (SlashCommand) Kind() string      { return "command" }
func (CallbackCommand) Kind() string   { return "callback" }
func (ContactCommand) Kind() string    { return "contact" }
func (AttachmentCommand) Kind() string { return "attachment" }
func (ButtonCommand) Kind() string     { return "button" }
func (FreeTextCommand) Kind() string   { return "text" }

// Classify maps an Event to its Command. Messages are checked in a fixed order:
// contact, attachment, slash command, exact button label, then free text.
func Classify(ev Event) Command {
	if ev.IsCallback {
		return parseCallback(ev.CallbackData)
	}
	if ev.Contact != nil {
		return ContactCommand{Contact: *ev.Contact}
	}
	if ev.Attachment != nil {
		return AttachmentCommand{Attachment: *ev.Attachment}
	}
	text := strings.TrimSpace(ev.Text)
	if strings.HasPrefix(text, "/") {
		return parseSlash(text)
	}
	if b, ok := buttonLabels[text]; ok {
		return ButtonCommand{Button: b, Label: text}
	}
	return FreeTextCommand{Text: text}
}

// parseSlash splits "/start@bot ref_1" into name "start" and args "ref_1".
func parseSlash(text string) SlashCommand {
	name, args, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
	name, _, _ = strings.Cut(name, "@")
	return SlashCommand{Name: strings.ToLower(name), Args: strings.TrimSpace(args)}
}

func parseCallback(data string) CallbackCommand {
	cmd := CallbackCommand{Raw: data}
	switch data {
	case constants.CallbackSelectSocial:
		cmd.Action, cmd.Category = CallbackSelectCategory, models.CategorySocialScience
		return cmd
	case constants.CallbackSelectNatural:
		cmd.Action, cmd.Category = CallbackSelectCategory, models.CategoryNaturalScience
		return cmd
	case constants.CallbackPaymentTeleBirr:
		cmd.Action, cmd.Method = CallbackSelectMethod, models.PaymentMethodTeleBirr
		return cmd
	case constants.CallbackPaymentCBE:
		cmd.Action, cmd.Method = CallbackSelectMethod, models.PaymentMethodCBEBirr
		return cmd
	case constants.CallbackAdminExport:
		cmd.Action = CallbackExport
		return cmd
	case constants.CallbackAdminPending:
		cmd.Action = CallbackPendingQueue
		return cmd
	case constants.CallbackAdminPayouts:
		cmd.Action = CallbackPendingPayouts
		return cmd
	}

	if rest, ok := strings.CutPrefix(data, constants.CallbackAdminApprovePrefix); ok {
		id, err := uuid.Parse(rest)
		cmd.Action, cmd.SubmissionID = CallbackApprove, id
		if err != nil {
			cmd.Err = fmt.Errorf("submission id %q: %w", rest, models.ErrUnknownSubmission)
		}
		return cmd
	}
	if rest, ok := strings.CutPrefix(data, constants.CallbackAdminRejectPrefix); ok {
		id, err := uuid.Parse(rest)
		cmd.Action, cmd.SubmissionID = CallbackReject, id
		if err != nil {
			cmd.Err = fmt.Errorf("submission id %q: %w", rest, models.ErrUnknownSubmission)
		}
		return cmd
	}
	if rest, ok := strings.CutPrefix(data, constants.CallbackAdminDetailsPrefix); ok {
		id, err := strconv.ParseInt(rest, 10, 64)
		cmd.Action, cmd.UserID = CallbackDetails, id
		if err != nil {
			cmd.Err = fmt.Errorf("user id %q: %w", rest, errUnknownTarget)
		}
		return cmd
	}
	if rest, ok := strings.CutPrefix(data, constants.CallbackWithdrawPaidPrefix); ok {
		id, err := uuid.Parse(rest)
		cmd.Action, cmd.WithdrawalID = CallbackWithdrawPaid, id
		if err != nil {
			cmd.Err = fmt.Errorf("withdrawal id %q: %w", rest, models.ErrUnknownWithdrawal)
		}
		return cmd
	}
	return cmd
}
