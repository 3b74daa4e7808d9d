package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Dune005/syfte/internal/render"
	"github.com/Dune005/syfte/internal/repository"
	"github.com/Dune005/syfte/internal/service"
	"github.com/Dune005/syfte/internal/validation"
)

// errorStatus maps domain errors to HTTP status codes. The first match wins.
var errorStatus = []struct {
	err    error
	status int
}{
	{render.ErrInvalidJSON, http.StatusBadRequest},
	{service.ErrInvalidResetToken, http.StatusBadRequest},

	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrPasswordNotSet, http.StatusUnauthorized},

	{service.ErrInvalidCurrentPassword, http.StatusForbidden},
	{service.ErrNotGoalOwner, http.StatusForbidden},
	{service.ErrActionReadOnly, http.StatusForbidden},
	{service.ErrNotAddressee, http.StatusForbidden},
	{service.ErrCannotRemoveOwner, http.StatusForbidden},

	{repository.ErrUserNotFound, http.StatusNotFound},
	{repository.ErrGoalNotFound, http.StatusNotFound},
	{repository.ErrSavingNotFound, http.StatusNotFound},
	{repository.ErrActionNotFound, http.StatusNotFound},
	{repository.ErrFriendshipNotFound, http.StatusNotFound},
	{repository.ErrSubscriptionNotFound, http.StatusNotFound},
	{repository.ErrNotParticipant, http.StatusNotFound},
	{repository.ErrFileNotFound, http.StatusNotFound},
	{service.ErrNoSubscriptions, http.StatusNotFound},

	{service.ErrEmailTaken, http.StatusConflict},
	{service.ErrUsernameTaken, http.StatusConflict},
	{service.ErrAlreadyFriends, http.StatusConflict},
	{service.ErrRequestPending, http.StatusConflict},
	{service.ErrRequestNotPending, http.StatusConflict},
	{repository.ErrAlreadyParticipant, http.StatusConflict},
	{service.ErrGoalLimitReached, http.StatusConflict},
	{service.ErrActionLimitReached, http.StatusConflict},

	{service.ErrInvalidEmail, http.StatusUnprocessableEntity},
	{service.ErrInvalidFile, http.StatusUnprocessableEntity},
	{service.ErrCannotBefriendSelf, http.StatusUnprocessableEntity},
	{service.ErrCannotInviteSelf, http.StatusUnprocessableEntity},
	{service.ErrNotFriends, http.StatusUnprocessableEntity},
	{service.ErrSearchQueryTooShort, http.StatusUnprocessableEntity},
	{service.ErrInvalidPeriod, http.StatusUnprocessableEntity},
	{service.ErrInvalidGoalSort, http.StatusUnprocessableEntity},
	{validation.ErrPasswordTooShort, http.StatusUnprocessableEntity},
	{validation.ErrPasswordTooLong, http.StatusUnprocessableEntity},
	{validation.ErrPasswordCommon, http.StatusUnprocessableEntity},

	{service.ErrStorageDisabled, http.StatusServiceUnavailable},
	{service.ErrPushDisabled, http.StatusServiceUnavailable},
}

// writeError answers with the status mapped to err. Unknown errors are
// logged and hidden behind a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var fields validation.FieldErrors
	if errors.As(err, &fields) {
		render.ValidationError(w, fields)
		return
	}

	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			render.Error(w, m.status, err.Error())
			return
		}
	}

	slog.Error("request failed",
		"error", err,
		"method", r.Method,
		"path", r.URL.Path,
	)
	render.Error(w, http.StatusInternalServerError, "internal server error")
}

// queryInt parses an optional integer query parameter.
func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, validation.FieldErrors{key: "must be an integer"}
	}
	return n, nil
}
