package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"medical-messenger/internal/converter"
	"medical-messenger/internal/delivery/dto"
	"medical-messenger/internal/usecase"
	"medical-messenger/pkg/response"
	"medical-messenger/pkg/validator"

	"github.com/sirupsen/logrus"
)

const streamHeartbeat = 25 * time.Second

type MessageHandler struct {
	messageUsecase usecase.MessageUsecase
	validator      *validator.CustomValidator
	log            *logrus.Logger
}

func NewMessageHandler(messageUsecase usecase.MessageUsecase, validator *validator.CustomValidator, log *logrus.Logger) *MessageHandler {
	return &MessageHandler{
		messageUsecase: messageUsecase,
		validator:      validator,
		log:            log,
	}
}

// SendMessage posts a message into an approved subscription's chat
// @Summary Send message
// @Tags Messages
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Subscription ID"
// @Param request body dto.SendMessageRequest true "Message"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /subscriptions/{id}/messages [post]
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	subID, ok := pathID(w, r, "id", "subscription")
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	msg, err := h.messageUsecase.Send(r.Context(), identity, subID, &req)
	if err != nil {
		response.FromError(w, err, "Failed to send message")
		return
	}

	response.Success(w, http.StatusCreated, "Message sent successfully", msg)
}

// GetMessages returns the latest messages of a subscription, oldest first
// @Summary List messages
// @Tags Messages
// @Security BearerAuth
// @Produce json
// @Param id path string true "Subscription ID"
// @Param limit query int false "Maximum messages"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /subscriptions/{id}/messages [get]
func (h *MessageHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	subID, ok := pathID(w, r, "id", "subscription")
	if !ok {
		return
	}

	p := newQueryParser(r)
	query := dto.MessageListQuery{Limit: p.Int("limit")}
	if !p.ok(w) || !validate(w, h.validator, &query) {
		return
	}

	messages, err := h.messageUsecase.List(r.Context(), identity, subID, &query)
	if err != nil {
		response.FromError(w, err, "Failed to get messages")
		return
	}

	response.Success(w, http.StatusOK, "Messages retrieved successfully", messages)
}

// StreamMessages relays new chat messages as server-sent events
// @Summary Stream messages
// @Tags Messages
// @Security BearerAuth
// @Produce text/event-stream
// @Param id path string true "Subscription ID"
// @Success 200 {string} string "event stream"
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /subscriptions/{id}/messages/stream [get]
func (h *MessageHandler) StreamMessages(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	subID, ok := pathID(w, r, "id", "subscription")
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Streaming not supported")
		return
	}

	ctx := r.Context()
	stream, err := h.messageUsecase.Stream(ctx, identity, subID)
	if err != nil {
		response.FromError(w, err, "Failed to open message stream")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(streamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case msg, open := <-stream:
			if !open {
				return
			}
			payload, err := json.Marshal(converter.MessageToResponse(&msg))
			if err != nil {
				h.log.Warnf("Failed to encode message %s: %+v", msg.ID, err)
				continue
			}
			fmt.Fprintf(w, "id: %s\nevent: message\ndata: %s\n\n", msg.ID, payload)
			flusher.Flush()
		}
	}
}
