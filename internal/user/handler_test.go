package user

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fakeUploader struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (f *fakeUploader) Upload(_ context.Context, key string, body io.Reader, _ int64, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.key, f.contentType, f.body = key, contentType, b
	return "https://cdn.example/" + key, nil
}

func currentUserIs(u *User) CurrentUserFunc {
	return func(context.Context) (*User, bool) { return u, u != nil }
}

func multipartRequest(t *testing.T, field string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "avatar.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPatch, "/api/users/avatar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHandler_Me(t *testing.T) {
	u := &User{ID: uuid.New(), Username: "alice", Email: "alice@example.com", PasswordHash: "secret", Role: RoleUser}
	h := NewHandler(NewService(new(mockStore), &fakeUploader{}), currentUserIs(u))

	w := httptest.NewRecorder()
	h.Me(w, httptest.NewRequest(http.MethodGet, "/api/users/me", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "alice", body["username"])
	assert.NotContains(t, body, "password_hash")
	assert.NotContains(t, body, "PasswordHash")

	w = httptest.NewRecorder()
	NewHandler(nil, currentUserIs(nil)).Me(w, httptest.NewRequest(http.MethodGet, "/api/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandler_UpdateAvatar(t *testing.T) {
	admin := &User{ID: uuid.New(), Username: "root", Email: "root@example.com", Role: RoleAdmin}
	store := new(mockStore)
	uploader := &fakeUploader{}
	svc := NewService(store, uploader)
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }

	wantURL := "https://cdn.example/avatars/root?v=1700000000"
	store.On("UpdateAvatar", mock.Anything, "root@example.com", wantURL).
		Return(&User{ID: admin.ID, Username: "root", Avatar: wantURL, Role: RoleAdmin}, nil)

	w := httptest.NewRecorder()
	NewHandler(svc, currentUserIs(admin)).UpdateAvatar(w, multipartRequest(t, "file", pngHeader))

	require.Equal(t, http.StatusOK, w.Code)
	var got User
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, wantURL, got.Avatar)
	assert.Equal(t, "avatars/root", uploader.key)
	assert.Equal(t, "image/png", uploader.contentType)
	assert.Equal(t, pngHeader, uploader.body)
	store.AssertExpectations(t)
}

func TestHandler_UpdateAvatar_Rejects(t *testing.T) {
	admin := &User{Username: "root", Email: "root@example.com", Role: RoleAdmin}

	tests := []struct {
		name       string
		req        func(t *testing.T) *http.Request
		uploadErr  error
		wantStatus int
	}{
		{
			name:       "missing file field",
			req:        func(t *testing.T) *http.Request { return multipartRequest(t, "picture", pngHeader) },
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "not an image",
			req:        func(t *testing.T) *http.Request { return multipartRequest(t, "file", []byte("hello, world")) },
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "upload fails",
			req:        func(t *testing.T) *http.Request { return multipartRequest(t, "file", pngHeader) },
			uploadErr:  errors.New("bucket unavailable"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(NewService(new(mockStore), &fakeUploader{err: tt.uploadErr}), currentUserIs(admin))
			w := httptest.NewRecorder()
			h.UpdateAvatar(w, tt.req(t))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
