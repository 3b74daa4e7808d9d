package validation

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
)

// MaxAvatarSize is the upload limit for profile pictures.
const MaxAvatarSize = 5 << 20

var (
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported image type")
)

// imageTypes maps sniffed content types to the file extensions accepted for them.
var imageTypes = map[string][]string{
	"image/jpeg": {".jpg", ".jpeg"},
	"image/png":  {".png"},
	"image/webp": {".webp"},
}

// ValidateImage checks that an upload is a JPEG, PNG or WebP no larger than
// MaxAvatarSize. The type is sniffed from the content, and the filename
// extension has to agree with it. The file is rewound afterwards.
func ValidateImage(header *multipart.FileHeader) error {
	if header.Size > MaxAvatarSize {
		return fmt.Errorf("%w: maximum is %d MB", ErrFileTooLarge, MaxAvatarSize>>20)
	}

	f, err := header.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind upload: %w", err)
	}

	detected := http.DetectContentType(head[:n])
	exts, ok := imageTypes[detected]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, detected)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !slices.Contains(exts, ext) {
		return fmt.Errorf("%w: %s content with %q extension", ErrUnsupportedType, detected, ext)
	}
	return nil
}
