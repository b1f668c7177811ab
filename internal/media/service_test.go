package media

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmflorece/tindahan-pos/pkg/config"
	pkgerrors "github.com/jmflorece/tindahan-pos/pkg/errors"
)

// pngHeader is the magic prefix http.DetectContentType keys on.
var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func setupMedia(t *testing.T) (Service, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "uploads")
	svc, err := NewService(config.MediaConfig{UploadDir: dir, MaxUploadMB: 1}, nil)
	require.NoError(t, err)
	return svc, dir
}

func multipartUpload(t *testing.T, filename string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/uploads", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	file, header, err := req.FormFile("image")
	require.NoError(t, err)
	return file, header
}

func TestStoreWritesImage(t *testing.T) {
	svc, dir := setupMedia(t)

	content := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x01}, 100)...)
	file, header := multipartUpload(t, "product.png", content)
	defer file.Close()

	stored, err := svc.Store(context.Background(), file, header)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(stored, ".png"))

	onDisk := filepath.Join(dir, filepath.Base(stored))
	data, err := os.ReadFile(onDisk)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestStoreRejectsNonImage(t *testing.T) {
	svc, _ := setupMedia(t)

	file, header := multipartUpload(t, "notes.txt", []byte("just text, not an image"))
	defer file.Close()

	_, err := svc.Store(context.Background(), file, header)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestStoreRejectsOversizedFile(t *testing.T) {
	svc, _ := setupMedia(t)

	big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x01}, 2<<20)...)
	file, header := multipartUpload(t, "huge.png", big)
	defer file.Close()

	_, err := svc.Store(context.Background(), file, header)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestStoreNamesAreUnique(t *testing.T) {
	svc, _ := setupMedia(t)
	content := append(append([]byte{}, pngHeader...), 0x01)

	fileA, headerA := multipartUpload(t, "same.png", content)
	defer fileA.Close()
	fileB, headerB := multipartUpload(t, "same.png", content)
	defer fileB.Close()

	a, err := svc.Store(context.Background(), fileA, headerA)
	require.NoError(t, err)
	b, err := svc.Store(context.Background(), fileB, headerB)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDeleteRemovesStoredImage(t *testing.T) {
	svc, dir := setupMedia(t)

	content := append(append([]byte{}, pngHeader...), 0x01)
	file, header := multipartUpload(t, "gone.png", content)
	defer file.Close()
	stored, err := svc.Store(context.Background(), file, header)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), stored))

	_, statErr := os.Stat(filepath.Join(dir, filepath.Base(stored)))
	assert.True(t, os.IsNotExist(statErr))
}

func TestDeleteRejectsPathTraversal(t *testing.T) {
	svc, dir := setupMedia(t)

	err := svc.Delete(context.Background(), dir+"/../../etc/passwd")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	err = svc.Delete(context.Background(), "/etc/passwd")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestDeleteUnknownFile(t *testing.T) {
	svc, dir := setupMedia(t)

	err := svc.Delete(context.Background(), dir+"/missing.png")
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}
