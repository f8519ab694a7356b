package telegram

import (
	"testing"
	"time"

	coreconfig "github.com/m3rciful/taskbot/core/config"

	tele "gopkg.in/telebot.v4"
)

func TestNewPollerLongpoll(t *testing.T) {
	cfg := &coreconfig.Config{Telegram: coreconfig.TelegramConfig{RunMode: coreconfig.RunModeLongpoll}}
	lp, ok := newPoller(cfg).(*tele.LongPoller)
	if !ok {
		t.Fatalf("poller = %T", newPoller(cfg))
	}
	if lp.Timeout != defaultLongPollTimeout {
		t.Fatalf("timeout = %v", lp.Timeout)
	}

	cfg.Telegram.LongPollTimeoutSeconds = 25
	if lp := newPoller(cfg).(*tele.LongPoller); lp.Timeout != 25*time.Second {
		t.Fatalf("timeout = %v", lp.Timeout)
	}
}

func TestNewPollerWebhook(t *testing.T) {
	cfg := &coreconfig.Config{
		Telegram: coreconfig.TelegramConfig{RunMode: coreconfig.RunModeWebhook},
		Webhook:  coreconfig.WebhookConfig{URL: "https://bot.example.com/hook", Listen: "0.0.0.0", Port: 8443},
	}
	wh, ok := newPoller(cfg).(*tele.Webhook)
	if !ok {
		t.Fatalf("poller = %T", newPoller(cfg))
	}
	if wh.Listen != "0.0.0.0:8443" || wh.Endpoint.PublicURL != cfg.Webhook.URL {
		t.Fatalf("webhook = %+v", wh)
	}
}
