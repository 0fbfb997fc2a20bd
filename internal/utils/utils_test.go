package utils

import (
	"bytes"
	"strings"
	"testing"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestReferralLinkAndPayload(t *testing.T) {
	link, err := GenerateReferralLink("tutor_bot", 42)
	require.NoError(t, err)
	require.Equal(t, "https://t.me/tutor_bot?start=ref_42", link)

	_, err = GenerateReferralLink("", 42)
	require.Error(t, err)

	require.Equal(t, int64(42), ParseReferralPayload("ref_42"))
	require.Equal(t, int64(42), ParseReferralPayload(" 42 "))
	require.Zero(t, ParseReferralPayload("ref_abc"))
	require.Zero(t, ParseReferralPayload("-3"))
	require.Zero(t, ParseReferralPayload(""))
}

func TestGenerateQRCodeIsPNG(t *testing.T) {
	png, err := GenerateQRCode("tutor_bot", 7)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(png, []byte("\x89PNG")))
}

func TestValidators(t *testing.T) {
	name, err := ValidateName("  Abel \t Tesfaye ")
	require.NoError(t, err)
	require.Equal(t, "Abel Tesfaye", name)
	_, err = ValidateName("A")
	require.Error(t, err)
	_, err = ValidateName("/start")
	require.Error(t, err)
	_, err = ValidateName(strings.Repeat("a", 65))
	require.Error(t, err)

	acc, err := ValidateAccountNumber("+251 911-22-33-44")
	require.NoError(t, err)
	require.Equal(t, "0911223344", acc)
	_, err = ValidateAccountNumber("12345")
	require.Error(t, err)

	amt, err := ParseAmount("30,5 etb")
	require.NoError(t, err)
	require.True(t, amt.Equal(decimal.RequireFromString("30.5")))
	_, err = ParseAmount("0")
	require.Error(t, err)
	_, err = ParseAmount("1.005")
	require.Error(t, err)
	_, err = ParseAmount("ten")
	require.Error(t, err)
}

func TestAccountCipherRoundTrip(t *testing.T) {
	c, err := NewAccountCipher(strings.Repeat("ab", 32))
	require.NoError(t, err)

	enc, err := c.Encrypt("100023456789")
	require.NoError(t, err)
	require.NotEqual(t, "100023456789", enc)
	dec, err := c.Decrypt(enc)
	require.NoError(t, err)
	require.Equal(t, "100023456789", dec)

	var none *AccountCipher
	plain, err := none.Encrypt("123")
	require.NoError(t, err)
	require.Equal(t, "123", plain)

	_, err = NewAccountCipher("abcd")
	require.Error(t, err)
}

func TestProofFromMessage(t *testing.T) {
	_, _, ok := ProofFromMessage(&tgbotapi.Message{Text: "hi"})
	require.False(t, ok)

	id, kind, ok := ProofFromMessage(&tgbotapi.Message{Photo: []tgbotapi.PhotoSize{
		{FileID: "small", Width: 90, Height: 90, FileSize: 1000},
		{FileID: "large", Width: 1280, Height: 720, FileSize: 90000},
	}})
	require.True(t, ok)
	require.Equal(t, "large", id)
	require.Equal(t, ProofKindPhoto, kind)

	id, kind, ok = ProofFromMessage(&tgbotapi.Message{Document: &tgbotapi.Document{FileID: "doc", MimeType: "application/pdf"}})
	require.True(t, ok)
	require.Equal(t, "doc", id)
	require.Equal(t, ProofKindDocument, kind)
}

func TestFormatters(t *testing.T) {
	require.Equal(t, "30.00 ETB", FormatMoney(decimal.NewFromInt(30), "ETB"))
	require.Equal(t, `a\_b\*c`, EscapeTelegramMarkdown("a_b*c"))
	require.Equal(t, "1b4e28ba", ShortID("1b4e28ba-2fa1-11d2-883f-0016d3cca427"))
}
