package handler

import (
	"net/http"

	"github.com/Dune005/syfte/internal/ctxkeys"
	"github.com/Dune005/syfte/internal/render"
	"github.com/Dune005/syfte/internal/service"
)

type SavingHandler struct {
	savingService *service.SavingService
}

func NewSavingHandler(savingService *service.SavingService) *SavingHandler {
	return &SavingHandler{savingService: savingService}
}

func (h *SavingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.SavingInput
	if err := render.Decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	result, err := h.savingService.Create(ctxkeys.UserID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, result)
}

func (h *SavingHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", service.DefaultSavingsLimit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.savingService.Savings(ctxkeys.UserID(r.Context()), r.URL.Query().Get("goal_id"), limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, page)
}

// Delete answers with the goal after the amount was taken off.
func (h *SavingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	goal, err := h.savingService.Delete(ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, map[string]any{"goal": goal})
}

func (h *SavingHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.savingService.Stats(ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, stats)
}
