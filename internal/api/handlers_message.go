package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/gab-cat/cold-start-sub000/internal/api/respond"
	"github.com/gab-cat/cold-start-sub000/internal/api/validate"
	"github.com/gab-cat/cold-start-sub000/internal/messaging"
	"github.com/gab-cat/cold-start-sub000/internal/model"
)

// UnlinkedChatText answers platform chats that map to no profile.
const UnlinkedChatText = "This chat isn't linked to a profile yet. Link it from the app to start logging."

type messageHandler struct {
	deps Deps
	log  zerolog.Logger
}

type postMessageRequest struct {
	Message         string     `json:"message"`
	ClientTimestamp *time.Time `json:"clientTimestamp,omitempty"`
}

// PostMessage runs one turn. A failed turn is still a 200 carrying success=false.
func (h *messageHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	if err := validate.UserID(userID); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	var in postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respond.WriteBadRequest(w, "invalid json")
		return
	}
	if err := validate.Message(in.Message); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	reply := h.deps.Pipeline.ProcessMessage(r.Context(), userID, in.Message, in.ClientTimestamp)
	respond.WriteJSON(w, http.StatusOK, reply)
}

// TelegramWebhook answers every update with 200 so the platform does not
// redeliver; problems are logged instead.
func (h *messageHandler) TelegramWebhook(w http.ResponseWriter, r *http.Request) {
	defer respond.WriteJSON(w, http.StatusOK, map[string]bool{"ok": true})

	var upd messaging.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		h.log.Warn().Err(err).Msg("undecodable telegram update")
		return
	}
	in, ok := upd.Inbound()
	if !ok {
		h.log.Debug().Int64("update_id", upd.UpdateID).Msg("ignoring update without text")
		return
	}
	log := h.log.With().Int64("update_id", upd.UpdateID).Str("chat_id", in.ChatID).Logger()
	ctx := r.Context()

	profile, err := h.deps.Store.Profiles().GetByMessagingID(ctx, messaging.PlatformTelegram, in.ChatID)
	if err != nil {
		if !model.IsNotFound(err) {
			log.Error().Stack().Err(err).Msg("messaging id lookup failed")
			return
		}
		log.Info().Msg("message from unlinked chat")
		h.send(ctx, log, in.ChatID, UnlinkedChatText)
		return
	}

	var sentAt *time.Time
	if !in.SentAt.IsZero() {
		sentAt = &in.SentAt
	}
	reply := h.deps.Pipeline.ProcessMessage(ctx, profile.UserID, in.Text, sentAt)
	h.send(ctx, log.With().Str("user_id", profile.UserID).Logger(), in.ChatID, reply.ResponseText)
}

func (h *messageHandler) send(ctx context.Context, log zerolog.Logger, chatID, text string) {
	if err := h.deps.Sender.Send(ctx, chatID, text); err != nil {
		log.Error().Err(err).Str("platform", h.deps.Sender.Platform()).Msg("reply delivery failed")
	}
}
