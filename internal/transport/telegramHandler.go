package transport

import (
	"crypto/subtle"
	"net/http"

	"github.com/ds124wfegd/eventbot/pkg/telegram"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const telegramSecretHeader = "X-Telegram-Bot-Api-Secret-Token"

// TelegramWebhook feeds Telegram updates into the message handler.
type TelegramWebhook struct {
	adapter *telegram.Adapter
	handler *MessageHandler
	secret  string
}

func NewTelegramWebhook(adapter *telegram.Adapter, handler *MessageHandler, secret string) *TelegramWebhook {
	return &TelegramWebhook{adapter: adapter, handler: handler, secret: secret}
}

func (w *TelegramWebhook) Receive(c *gin.Context) {
	if w.secret != "" {
		got := c.GetHeader(telegramSecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(w.secret)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid secret token"})
			return
		}
	}

	var update telegram.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		logrus.WithError(err).Warn("malformed telegram update")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if msg, ok := w.adapter.ChatMessage(&update); ok {
		w.handler.Handle(c.Request.Context(), w.adapter, msg)
	}

	c.Status(http.StatusOK)
}
