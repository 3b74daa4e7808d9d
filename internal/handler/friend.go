package handler

import (
	"net/http"

	"github.com/Dune005/syfte/internal/ctxkeys"
	"github.com/Dune005/syfte/internal/render"
	"github.com/Dune005/syfte/internal/service"
	"github.com/Dune005/syfte/internal/validation"
)

type FriendHandler struct {
	friendService *service.FriendService
}

func NewFriendHandler(friendService *service.FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	friends, err := h.friendService.Friends(ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, friends)
}

func (h *FriendHandler) Requests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.friendService.Requests(ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, requests)
}

type friendRequest struct {
	Username string `json:"username" validate:"required,max=30"`
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	var in friendRequest
	if err := render.Decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Struct(in); err != nil {
		writeError(w, r, err)
		return
	}

	friendship, err := h.friendService.SendRequest(r.Context(), ctxkeys.UserID(r.Context()), in.Username)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusCreated, friendship)
}

func (h *FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	friendship, err := h.friendService.Accept(ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, friendship)
}

func (h *FriendHandler) Decline(w http.ResponseWriter, r *http.Request) {
	err := h.friendService.Decline(ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.NoContent(w)
}

func (h *FriendHandler) Remove(w http.ResponseWriter, r *http.Request) {
	err := h.friendService.Remove(ctxkeys.UserID(r.Context()), r.PathValue("userID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.NoContent(w)
}

func (h *FriendHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.friendService.Leaderboard(ctxkeys.UserID(r.Context()), r.URL.Query().Get("period"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, entries)
}
