package telegram_api

import (
	"fmt"
	"log"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
)

// BotClient wraps the Telegram Bot API.
type BotClient struct {
	api   *tgbotapi.BotAPI
	Debug bool
}

// NewBotClient authorizes the bot with token.
func NewBotClient(token string, debug bool) (*BotClient, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram API token is not set")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram Bot API init: %w", err)
	}
	api.Debug = debug

	log.Printf("Authorized as @%s", api.Self.UserName)
	return &BotClient{api: api, Debug: debug}, nil
}

// Username returns the bot's @username without the @.
func (bc *BotClient) Username() string {
	return bc.api.Self.UserName
}

// GetUpdatesChan starts long polling.
func (bc *BotClient) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	if bc.Debug {
		log.Printf("GetUpdatesChan: %+v", config)
	}
	return bc.api.GetUpdatesChan(config)
}

// StopReceivingUpdates ends long polling and closes the updates channel.
func (bc *BotClient) StopReceivingUpdates() {
	bc.api.StopReceivingUpdates()
}

// Send delivers a message-producing request.
func (bc *BotClient) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if bc.Debug {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			log.Printf("Send: message chat=%d text='%.50s...'", m.ChatID, m.Text)
		case tgbotapi.PhotoConfig:
			log.Printf("Send: photo chat=%d caption='%.50s...'", m.ChatID, m.Caption)
		default:
			log.Printf("Send: %T", c)
		}
	}
	return bc.api.Send(c)
}

// Request performs a call whose result is not a message, such as a callback answer.
func (bc *BotClient) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	if bc.Debug {
		if cb, ok := c.(tgbotapi.CallbackConfig); ok {
			log.Printf("Request: callback answer id=%s text='%.50s...'", cb.CallbackQueryID, cb.Text)
		} else {
			log.Printf("Request: %T", c)
		}
	}
	return bc.api.Request(c)
}

// SetWebhook points Telegram at url for update delivery. Telegram echoes
// secret in the X-Telegram-Bot-Api-Secret-Token header of every call.
func (bc *BotClient) SetWebhook(url, secret string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("webhook config for %q: %w", url, err)
	}
	wh.SecretToken = secret
	if _, err := bc.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	log.Printf("SetWebhook: updates will be delivered to %s", url)
	return nil
}

// DeleteWebhook switches the bot back to getUpdates.
// A missing webhook is not an error.
func (bc *BotClient) DeleteWebhook(dropPending bool) error {
	if _, err := bc.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: dropPending}); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	log.Println("DeleteWebhook: webhook disabled (or was not set).")
	return nil
}
