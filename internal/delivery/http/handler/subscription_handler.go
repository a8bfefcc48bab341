package handler

import (
	"net/http"

	"medical-messenger/internal/delivery/dto"
	"medical-messenger/internal/usecase"
	"medical-messenger/pkg/response"
	"medical-messenger/pkg/validator"
)

type SubscriptionHandler struct {
	subscriptionUsecase usecase.SubscriptionUsecase
	validator           *validator.CustomValidator
}

func NewSubscriptionHandler(subscriptionUsecase usecase.SubscriptionUsecase, validator *validator.CustomValidator) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionUsecase: subscriptionUsecase,
		validator:           validator,
	}
}

// CreateSubscription handles a patient's request to consult a doctor
// @Summary Request subscription
// @Description Patient requests a messaging subscription with a doctor
// @Tags Subscriptions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateSubscriptionRequest true "Subscription Request"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /subscriptions [post]
func (h *SubscriptionHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	var req dto.CreateSubscriptionRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	sub, err := h.subscriptionUsecase.Request(r.Context(), identity, &req)
	if err != nil {
		response.FromError(w, err, "Failed to request subscription")
		return
	}

	response.Success(w, http.StatusCreated, "Subscription requested successfully", sub)
}

// GetMySubscriptions
// @Summary List my subscriptions
// @Tags Subscriptions
// @Security BearerAuth
// @Produce json
// @Param status query string false "Status filter"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /subscriptions/mine [get]
func (h *SubscriptionHandler) GetMySubscriptions(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}

	query := dto.SubscriptionListQuery{Status: newQueryParser(r).String("status")}
	if !validate(w, h.validator, &query) {
		return
	}

	subs, err := h.subscriptionUsecase.ListMine(r.Context(), identity, &query)
	if err != nil {
		response.FromError(w, err, "Failed to get subscriptions")
		return
	}

	response.Success(w, http.StatusOK, "Subscriptions retrieved successfully", subs)
}

// GetSubscription
// @Summary Get subscription
// @Tags Subscriptions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /subscriptions/{id} [get]
func (h *SubscriptionHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	subID, ok := pathID(w, r, "id", "subscription")
	if !ok {
		return
	}

	sub, err := h.subscriptionUsecase.Get(r.Context(), identity, subID)
	if err != nil {
		response.FromError(w, err, "Failed to get subscription")
		return
	}

	response.Success(w, http.StatusOK, "Subscription retrieved successfully", sub)
}

// UpdateSubscriptionStatus lets the subscribed doctor approve or deny a request
// @Summary Respond to subscription
// @Tags Subscriptions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Subscription ID"
// @Param request body dto.UpdateSubscriptionStatusRequest true "Status Update"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /subscriptions/{id} [patch]
func (h *SubscriptionHandler) UpdateSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	subID, ok := pathID(w, r, "id", "subscription")
	if !ok {
		return
	}

	var req dto.UpdateSubscriptionStatusRequest
	if !decodeAndValidate(w, r, h.validator, &req) {
		return
	}

	sub, err := h.subscriptionUsecase.UpdateStatus(r.Context(), identity, subID, &req)
	if err != nil {
		response.FromError(w, err, "Failed to update subscription")
		return
	}

	response.Success(w, http.StatusOK, "Subscription updated successfully", sub)
}

// CancelSubscription
// @Summary Cancel subscription request
// @Tags Subscriptions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /subscriptions/{id}/cancel [post]
func (h *SubscriptionHandler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	identity, ok := caller(w, r)
	if !ok {
		return
	}
	subID, ok := pathID(w, r, "id", "subscription")
	if !ok {
		return
	}

	sub, err := h.subscriptionUsecase.Cancel(r.Context(), identity, subID)
	if err != nil {
		response.FromError(w, err, "Failed to cancel subscription")
		return
	}

	response.Success(w, http.StatusOK, "Subscription cancelled successfully", sub)
}
