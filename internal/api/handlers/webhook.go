package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hoanghai1803/newsluhy/internal/pipeline"
	"github.com/hoanghai1803/newsluhy/internal/telegram"
)

// Webhook handles POST /api/webhook for Telegram bot updates. Updates with
// a usable message are acknowledged in the chat right away; the search
// itself runs in bg after the response is written, so Telegram does not
// retry slow deliveries.
func Webhook(p *pipeline.Pipeline, env pipeline.Env, botToken string, bg *Background) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if botToken == "" {
			writeError(w, http.StatusInternalServerError, "TELEGRAM_BOT_TOKEN not set")
			return
		}

		var update telegram.Update
		if err := decodeJSON(w, r, &update); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}

		chatID, text, ok := telegram.MessageText(update)
		if !ok {
			writeJSON(w, http.StatusOK, okResponse{OK: true})
			return
		}

		slog.Info("webhook message received", "update_id", update.UpdateID, "chat_id", chatID)

		p.Notifier().SendMessage(r.Context(), botToken, chatID, pipeline.MsgProcessing, nil)

		started := bg.Go(r.Context(), "chat pipeline", func(ctx context.Context) {
			p.RunChat(ctx, chatID, text, botToken, env)
		})
		if !started {
			p.Notifier().SendMessage(r.Context(), botToken, chatID, pipeline.MsgFailed, nil)
		}

		writeJSON(w, http.StatusOK, okResponse{OK: true})
	}
}
