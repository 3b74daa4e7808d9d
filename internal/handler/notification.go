package handler

import (
	"net/http"

	"github.com/Dune005/syfte/internal/ctxkeys"
	"github.com/Dune005/syfte/internal/render"
	"github.com/Dune005/syfte/internal/service"
)

type NotificationHandler struct {
	notificationService *service.NotificationService
}

func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) VAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	key, err := h.notificationService.VAPIDPublicKey()
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, map[string]string{"public_key": key})
}

func (h *NotificationHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var in service.SubscribeInput
	if err := render.Decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	sub, err := h.notificationService.Subscribe(ctxkeys.UserID(r.Context()), in, r.UserAgent())
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, sub)
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func (h *NotificationHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var in unsubscribeRequest
	if err := render.Decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	err := h.notificationService.Unsubscribe(ctxkeys.UserID(r.Context()), in.Endpoint)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.NoContent(w)
}

func (h *NotificationHandler) Preferences(w http.ResponseWriter, r *http.Request) {
	pref, err := h.notificationService.Preferences(ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, pref)
}

func (h *NotificationHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var in service.PreferenceInput
	if err := render.Decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	pref, err := h.notificationService.UpdatePreferences(ctxkeys.UserID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, pref)
}

func (h *NotificationHandler) Test(w http.ResponseWriter, r *http.Request) {
	sent, err := h.notificationService.SendTest(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, map[string]int{"sent": sent})
}
