package service_test

import (
	"bytes"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/Dune005/syfte/internal/model"
	"github.com/Dune005/syfte/internal/repository"
	"github.com/Dune005/syfte/internal/service"
	"github.com/Dune005/syfte/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

// formFile builds an uploaded file the way net/http hands it to handlers.
func formFile(t *testing.T, name string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("avatar", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	header := form.File["avatar"][0]
	file, err := header.Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })
	return file, header
}

func strPtr(s string) *string { return &s }

// -- Profile tests --

func TestUpdateProfile(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	anna := env.CreateUser(t, "anna")
	env.CreateUser(t, "ben")

	updated, err := env.UserService.UpdateProfile(t.Context(), anna.ID, service.UpdateProfileInput{
		FirstName: strPtr(" Anna "),
		LastName:  strPtr("Meier"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Anna", updated.FirstName)
	assert.Equal(t, "Meier", updated.LastName)
	assert.Equal(t, "anna", updated.Username)

	_, err = env.UserService.UpdateProfile(t.Context(), anna.ID, service.UpdateProfileInput{Username: strPtr("BEN")})
	assert.ErrorIs(t, err, service.ErrUsernameTaken)

	// changing only the case of the own username is allowed
	updated, err = env.UserService.UpdateProfile(t.Context(), anna.ID, service.UpdateProfileInput{Username: strPtr("Anna")})
	require.NoError(t, err)
	assert.Equal(t, "Anna", updated.Username)
}

func TestUpdatePassword(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	user := env.CreateUser(t, "anna")

	err := env.UserService.UpdatePassword(user.ID, "wrong-password", "another-long-password")
	assert.ErrorIs(t, err, service.ErrInvalidCurrentPassword)

	require.NoError(t, env.UserService.UpdatePassword(user.ID, testutil.Password, "another-long-password"))

	_, err = env.AuthService.Login("anna", testutil.Password)
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
	_, err = env.AuthService.Login("anna", "another-long-password")
	assert.NoError(t, err)
}

// -- Search tests --

func TestSearch_FriendshipStatus(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	anna := env.CreateUser(t, "anna")
	mara := env.CreateUser(t, "mara")
	env.CreateUser(t, "marco")
	env.CreateUser(t, "martin")
	env.Befriend(t, anna, mara)

	_, err := env.FriendService.SendRequest(t.Context(), anna.ID, "marco")
	require.NoError(t, err)

	results, err := env.UserService.Search(anna.ID, "mar")
	require.NoError(t, err)
	require.Len(t, results, 3)

	statuses := map[string]string{}
	for _, r := range results {
		statuses[r.Username] = r.FriendshipStatus
	}
	assert.Equal(t, map[string]string{
		"mara":   model.FriendshipAccepted,
		"marco":  model.FriendshipPending,
		"martin": service.FriendshipStatusNone,
	}, statuses)

	self, err := env.UserService.Search(anna.ID, "ann")
	require.NoError(t, err)
	assert.Empty(t, self)

	_, err = env.UserService.Search(anna.ID, " m ")
	assert.ErrorIs(t, err, service.ErrSearchQueryTooShort)
}

// -- Avatar tests --

func TestUploadAvatar_ReplacesPrevious(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	user := env.CreateUser(t, "anna")

	file, header := formFile(t, "me.png", pngHeader)
	updated, err := env.UserService.UploadAvatar(t.Context(), user.ID, file, header)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(updated.AvatarURL, "http://localhost:8090/files/public/avatars/"))
	first := strings.TrimPrefix(updated.AvatarURL, "http://localhost:8090/files/")
	assert.True(t, env.Storage.Has(first))

	file, header = formFile(t, "me-again.png", pngHeader)
	updated, err = env.UserService.UploadAvatar(t.Context(), user.ID, file, header)
	require.NoError(t, err)
	second := strings.TrimPrefix(updated.AvatarURL, "http://localhost:8090/files/")
	assert.NotEqual(t, first, second)
	assert.False(t, env.Storage.Has(first))
	assert.True(t, env.Storage.Has(second))

	require.NoError(t, env.UserService.DeleteAvatar(t.Context(), user.ID))
	assert.False(t, env.Storage.Has(second))

	reloaded, err := env.UserService.ByID(t.Context(), user.ID)
	require.NoError(t, err)
	assert.Empty(t, reloaded.AvatarURL)
}

func TestUploadAvatar_RejectsNonImages(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	user := env.CreateUser(t, "anna")

	file, header := formFile(t, "evil.png", []byte("#!/bin/sh\necho hi\n"))
	_, err := env.UserService.UploadAvatar(t.Context(), user.ID, file, header)
	assert.ErrorIs(t, err, service.ErrInvalidFile)
}

// -- Delete account tests --

func TestDeleteAccount_Cascades(t *testing.T) {
	env := testutil.NewEnv(t, tuesdayNoon)
	anna := env.CreateUser(t, "anna")
	ben := env.CreateUser(t, "ben")
	env.Befriend(t, anna, ben)

	goal := createGoal(t, env, anna.ID, "Ferien", 100)
	_, err := env.SavingService.Create(anna.ID, service.SavingInput{GoalID: goal.ID, Amount: amount(12)})
	require.NoError(t, err)
	file, header := formFile(t, "me.png", pngHeader)
	withAvatar, err := env.UserService.UploadAvatar(t.Context(), anna.ID, file, header)
	require.NoError(t, err)

	require.NoError(t, env.UserService.DeleteAccount(t.Context(), anna.ID))

	_, err = env.UserService.ByID(t.Context(), anna.ID)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)
	assert.False(t, env.Storage.Has(strings.TrimPrefix(withAvatar.AvatarURL, "http://localhost:8090/files/")))

	friends, err := env.FriendService.Friends(ben.ID)
	require.NoError(t, err)
	assert.Empty(t, friends)

	var savings int
	require.NoError(t, env.DB.Get(&savings, `SELECT COUNT(*) FROM savings`))
	assert.Zero(t, savings)
}
