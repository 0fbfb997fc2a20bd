package handlers

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"tutorbot/internal/constants"
	"tutorbot/internal/models"
)

func TestClassifyMessagePrecedence(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{"contact wins over text", Event{Text: "/start", Contact: &Contact{PhoneNumber: "1"}}, "contact"},
		{"attachment wins over text", Event{Text: constants.BtnHelp, Attachment: &Attachment{FileID: "f"}}, "attachment"},
		{"slash command", Event{Text: "/help"}, "command"},
		{"exact button label", Event{Text: constants.BtnRegister}, "button"},
		{"label with different text is free text", Event{Text: "Register for Tutorial"}, "text"},
		{"empty text", Event{}, "text"},
		{"callback", Event{IsCallback: true, CallbackData: "whatever"}, "callback"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.ev).Kind())
		})
	}
}

func TestClassifySlashCommand(t *testing.T) {
	cmd, ok := Classify(Event{Text: "/start@tutor_bot ref_42"}).(SlashCommand)
	require.True(t, ok)
	require.Equal(t, "start", cmd.Name)
	require.Equal(t, "ref_42", cmd.Args)

	cmd = Classify(Event{Text: "/HELP"}).(SlashCommand)
	require.Equal(t, "help", cmd.Name)
	require.Empty(t, cmd.Args)
}

func TestBothUploadLabelsShareOneButton(t *testing.T) {
	a := Classify(Event{Text: constants.BtnUploadScreenshot}).(ButtonCommand)
	b := Classify(Event{Text: constants.BtnUploadAlt}).(ButtonCommand)
	require.Equal(t, ButtonUploadScreenshot, a.Button)
	require.Equal(t, a.Button, b.Button)
}

func TestEveryLabelIsRecognized(t *testing.T) {
	for label := range buttonLabels {
		cmd, ok := Classify(Event{Text: label}).(ButtonCommand)
		require.True(t, ok, label)
		require.NotZero(t, cmd.Button, label)
	}
}

func TestParseCallback(t *testing.T) {
	id := uuid.New()

	c := parseCallback(constants.CallbackSelectNatural)
	require.Equal(t, CallbackSelectCategory, c.Action)
	require.Equal(t, models.CategoryNaturalScience, c.Category)

	c = parseCallback(constants.CallbackPaymentCBE)
	require.Equal(t, CallbackSelectMethod, c.Action)
	require.Equal(t, models.PaymentMethodCBEBirr, c.Method)

	c = parseCallback(constants.CallbackAdminApprovePrefix + id.String())
	require.Equal(t, CallbackApprove, c.Action)
	require.Equal(t, id, c.SubmissionID)

	c = parseCallback(constants.CallbackAdminRejectPrefix + id.String())
	require.Equal(t, CallbackReject, c.Action)

	c = parseCallback(constants.CallbackAdminDetailsPrefix + "77")
	require.Equal(t, CallbackDetails, c.Action)
	require.Equal(t, int64(77), c.UserID)

	c = parseCallback(constants.CallbackWithdrawPaidPrefix + id.String())
	require.Equal(t, CallbackWithdrawPaid, c.Action)
	require.Equal(t, id, c.WithdrawalID)

	require.NoError(t, c.Err)
	require.Equal(t, CallbackUnknown, parseCallback("").Action)
	require.Equal(t, CallbackUnknown, parseCallback("something_else").Action)
}

func TestParseCallbackMalformedIDs(t *testing.T) {
	c := parseCallback(constants.CallbackAdminApprovePrefix + "not-a-uuid")
	require.Equal(t, CallbackApprove, c.Action)
	require.ErrorIs(t, c.Err, models.ErrUnknownSubmission)

	c = parseCallback(constants.CallbackAdminRejectPrefix)
	require.ErrorIs(t, c.Err, models.ErrUnknownSubmission)

	c = parseCallback(constants.CallbackAdminDetailsPrefix + "x")
	require.Equal(t, CallbackDetails, c.Action)
	require.ErrorIs(t, c.Err, models.ErrUnknownUser)

	c = parseCallback(constants.CallbackWithdrawPaidPrefix + "42")
	require.ErrorIs(t, c.Err, models.ErrUnknownWithdrawal)
}
