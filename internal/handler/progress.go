package handler

import (
	"net/http"

	"github.com/Dune005/syfte/internal/ctxkeys"
	"github.com/Dune005/syfte/internal/render"
	"github.com/Dune005/syfte/internal/service"
)

// ProgressHandler serves streaks and achievements.
type ProgressHandler struct {
	streakService      *service.StreakService
	achievementService *service.AchievementService
}

func NewProgressHandler(streakService *service.StreakService, achievementService *service.AchievementService) *ProgressHandler {
	return &ProgressHandler{
		streakService:      streakService,
		achievementService: achievementService,
	}
}

func (h *ProgressHandler) Streak(w http.ResponseWriter, r *http.Request) {
	streak, err := h.streakService.Streak(ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, streak)
}

func (h *ProgressHandler) Achievements(w http.ResponseWriter, r *http.Request) {
	progress, err := h.achievementService.Progress(ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, progress)
}
