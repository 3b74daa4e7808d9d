package handler

import (
	"net/http"

	"github.com/Dune005/syfte/internal/ctxkeys"
	"github.com/Dune005/syfte/internal/render"
	"github.com/Dune005/syfte/internal/service"
	"github.com/Dune005/syfte/internal/validation"
)

type GoalHandler struct {
	goalService    *service.GoalService
	sharingService *service.SharingService
}

func NewGoalHandler(goalService *service.GoalService, sharingService *service.SharingService) *GoalHandler {
	return &GoalHandler{
		goalService:    goalService,
		sharingService: sharingService,
	}
}

func (h *GoalHandler) List(w http.ResponseWriter, r *http.Request) {
	goals, err := h.goalService.Goals(ctxkeys.UserID(r.Context()), r.URL.Query().Get("sort"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in service.GoalInput
	if err := render.Decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	goal, err := h.goalService.Create(ctxkeys.UserID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, goal)
}

func (h *GoalHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.goalService.Detail(ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, detail)
}

func (h *GoalHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.GoalInput
	if err := render.Decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	goal, err := h.goalService.Update(ctxkeys.UserID(r.Context()), r.PathValue("id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, goal)
}

func (h *GoalHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.goalService.Delete(ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.NoContent(w)
}

func (h *GoalHandler) Participants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.sharingService.Participants(ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, participants)
}

type inviteRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

func (h *GoalHandler) Invite(w http.ResponseWriter, r *http.Request) {
	var in inviteRequest
	if err := render.Decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Struct(in); err != nil {
		writeError(w, r, err)
		return
	}

	participant, err := h.sharingService.Invite(ctxkeys.UserID(r.Context()), r.PathValue("id"), in.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, participant)
}

// RemoveParticipant lets the owner remove a contributor or a contributor
// leave the goal.
func (h *GoalHandler) RemoveParticipant(w http.ResponseWriter, r *http.Request) {
	err := h.sharingService.Remove(ctxkeys.UserID(r.Context()), r.PathValue("id"), r.PathValue("userID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.NoContent(w)
}
