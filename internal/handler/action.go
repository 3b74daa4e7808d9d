package handler

import (
	"net/http"

	"github.com/Dune005/syfte/internal/ctxkeys"
	"github.com/Dune005/syfte/internal/render"
	"github.com/Dune005/syfte/internal/service"
)

type ActionHandler struct {
	actionService *service.ActionService
}

func NewActionHandler(actionService *service.ActionService) *ActionHandler {
	return &ActionHandler{actionService: actionService}
}

func (h *ActionHandler) List(w http.ResponseWriter, r *http.Request) {
	actions, err := h.actionService.Actions(ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, actions)
}

func (h *ActionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.ActionInput
	if err := render.Decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	action, err := h.actionService.Create(ctxkeys.UserID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, action)
}

func (h *ActionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.ActionInput
	if err := render.Decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	action, err := h.actionService.Update(ctxkeys.UserID(r.Context()), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, action)
}

func (h *ActionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.actionService.Delete(ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.NoContent(w)
}
