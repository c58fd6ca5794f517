package server

import (
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gin-gonic/gin"
)

// handleTelegram serves bot commands pushed by a Telegram webhook and
// answers inline with a sendMessage call.
func (s *Server) handleTelegram(c *gin.Context) {
	var update tgbotapi.Update
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "invalid update"})
		return
	}
	msg := update.Message
	if msg == nil || !msg.IsCommand() {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	var text string
	switch msg.Command() {
	case "apply", "start":
		_, body := s.start()
		if body["success"] == true {
			text = "▶️ Run started"
		} else {
			text = fmt.Sprintf("⚠️ %v", body["error"])
		}
	case "stop":
		s.stop()
		text = "⏹️ Stop requested"
	case "status":
		st := s.snapshot(c.Request.Context())
		text = fmt.Sprintf("Running: %t\nProcessed: %d\nApplied: %d", st.Running, st.Last.Processed, st.Last.Success)
		if st.CurrentJob != nil {
			text += "\nCurrent: " + st.CurrentJob.Title
		}
	default:
		text = "Commands: /apply, /stop, /status"
	}

	c.JSON(http.StatusOK, gin.H{
		"method":  "sendMessage",
		"chat_id": msg.Chat.ID,
		"text":    text,
	})
}
