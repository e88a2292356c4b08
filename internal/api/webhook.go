package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"givebox/internal/model"
	"givebox/internal/telegram"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const botCacheTTL = 5 * time.Minute

// handleWebhook ingests one Telegram update. It answers 200 for everything
// it could attribute to a bot: Telegram redelivers non-2xx responses, and a
// poison update must not wedge the queue.
func (d Dependencies) handleWebhook(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	bot, ok := d.botCache.Get(token)
	if !ok {
		var err error
		bot, err = d.DB.Queries.GetBotByToken(r.Context(), token)
		if errors.Is(err, model.ErrNotFound) {
			WriteError(w, http.StatusNotFound, "unknown_bot", "Unknown webhook token", d.Log)
			return
		}
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "internal_error", "Failed to resolve bot", d.Log)
			return
		}
		d.botCache.Add(token, bot)
	}
	if !bot.Active {
		w.WriteHeader(http.StatusOK)
		return
	}

	var update telegram.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		d.Log.Warn("Undecodable update", zap.Int64("bot_id", bot.ID), zap.Error(err))
		w.WriteHeader(http.StatusOK)
		return
	}

	if err := d.Claims.HandleUpdate(r.Context(), bot, update); err != nil {
		d.Log.Error("Update processing failed",
			zap.Int64("bot_id", bot.ID),
			zap.Int64("update_id", update.UpdateID),
			zap.Error(err))
	}
	w.WriteHeader(http.StatusOK)
}
