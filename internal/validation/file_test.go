package validation

import (
	"bytes"
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func upload(t *testing.T, name string, content []byte) *multipart.FileHeader {
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
	return form.File["avatar"][0]
}

func TestValidateImage(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		wantErr  error
	}{
		{"png", "me.png", pngMagic, nil},
		{"uppercase extension", "ME.PNG", pngMagic, nil},
		{"png named jpg", "me.jpg", pngMagic, ErrUnsupportedType},
		{"script", "me.png", []byte("#!/bin/sh\necho hi\n"), ErrUnsupportedType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImage(upload(t, tt.filename, tt.content))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateImage_TooLarge(t *testing.T) {
	header := upload(t, "me.png", pngMagic)
	header.Size = MaxAvatarSize + 1
	assert.ErrorIs(t, ValidateImage(header), ErrFileTooLarge)
}

func TestValidateImage_RewindsFile(t *testing.T) {
	header := upload(t, "me.png", pngMagic)
	require.NoError(t, ValidateImage(header))

	f, err := header.Open()
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	got := make([]byte, len(pngMagic))
	_, err = f.Read(got)
	require.NoError(t, err)
	assert.Equal(t, pngMagic, got)
}
