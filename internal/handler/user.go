package handler

import (
	"log/slog"
	"net/http"

	"github.com/Dune005/syfte/internal/ctxkeys"
	"github.com/Dune005/syfte/internal/render"
	"github.com/Dune005/syfte/internal/service"
	"github.com/Dune005/syfte/internal/validation"
)

const maxAvatarUpload = 5 << 20

type UserHandler struct {
	userService *service.UserService
	authService *service.AuthService
}

func NewUserHandler(userService *service.UserService, authService *service.AuthService) *UserHandler {
	return &UserHandler{
		userService: userService,
		authService: authService,
	}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.userService.ByID(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateProfileInput
	if err := render.Decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), ctxkeys.UserID(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, user)
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password" validate:"required"`
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in changePasswordRequest
	if err := render.Decode(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := validation.Struct(in); err != nil {
		writeError(w, r, err)
		return
	}

	err := h.userService.UpdatePassword(ctxkeys.UserID(r.Context()), in.CurrentPassword, in.NewPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.NoContent(w)
}

func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarUpload+1024)
	if err := r.ParseMultipartForm(maxAvatarUpload); err != nil {
		render.Error(w, http.StatusRequestEntityTooLarge, "avatar must be a multipart upload of at most 5MB")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		render.ValidationError(w, validation.FieldErrors{"avatar": "is required"})
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			slog.Error("failed to close upload", "error", closeErr)
		}
	}()

	user, err := h.userService.UploadAvatar(r.Context(), ctxkeys.UserID(r.Context()), file, header)
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	err := h.userService.DeleteAvatar(r.Context(), ctxkeys.UserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.NoContent(w)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := ctxkeys.UserID(r.Context())

	err := h.userService.DeleteAccount(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.authService.ClearJWTCookie(w)
	slog.Info("account deleted", "user_id", userID)
	render.NoContent(w)
}

func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := h.userService.Search(ctxkeys.UserID(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	render.JSON(w, http.StatusOK, results)
}
