package utils

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/skip2/go-qrcode"
)

const referralPayloadPrefix = "ref_"

// GenerateReferralLink builds the deep link that starts the bot with the inviter's id.
func GenerateReferralLink(botUsername string, userID int64) (string, error) {
	if botUsername == "" {
		log.Println("GenerateReferralLink: botUsername is not configured.")
		return "", fmt.Errorf("bot username is not configured")
	}
	if userID <= 0 {
		return "", fmt.Errorf("invalid user id %d for referral link", userID)
	}
	return fmt.Sprintf("https://t.me/%s?start=%s%d", botUsername, referralPayloadPrefix, userID), nil
}

// GenerateQRCode encodes the referral link as a 256px PNG.
func GenerateQRCode(botUsername string, userID int64) ([]byte, error) {
	link, err := GenerateReferralLink(botUsername, userID)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		log.Printf("GenerateQRCode: encoding %q failed: %v", link, err)
		return nil, err
	}
	return png, nil
}

// ParseReferralPayload extracts the inviter id from a /start payload.
// Both "ref_123" and a bare "123" are accepted; anything else yields 0.
func ParseReferralPayload(payload string) int64 {
	payload = strings.TrimSpace(payload)
	payload = strings.TrimPrefix(payload, referralPayloadPrefix)
	if payload == "" {
		return 0
	}
	id, err := strconv.ParseInt(payload, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}
