package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"filevault/internal/common"
	"filevault/internal/logging"
	"filevault/internal/server/models"
	"filevault/internal/server/services"
)

type fakeFileService struct {
	UploadFn   func(ctx context.Context, identity models.Identity, filename string, content io.Reader, size int64, contentType string) (*models.StoredFile, error)
	ListFn     func(ctx context.Context, identity models.Identity) ([]*models.StoredFile, error)
	DownloadFn func(ctx context.Context, fileID, filename string) (*models.StoredFile, io.ReadCloser, error)
	DeleteFn   func(ctx context.Context, identity models.Identity, fileID string) error
	ShareFn    func(ctx context.Context, identity models.Identity, fileID string) (string, error)
}

func (f *fakeFileService) Upload(ctx context.Context, identity models.Identity, filename string, content io.Reader, size int64, contentType string) (*models.StoredFile, error) {
	return f.UploadFn(ctx, identity, filename, content, size, contentType)
}

func (f *fakeFileService) List(ctx context.Context, identity models.Identity) ([]*models.StoredFile, error) {
	return f.ListFn(ctx, identity)
}

func (f *fakeFileService) Download(ctx context.Context, fileID, filename string) (*models.StoredFile, io.ReadCloser, error) {
	return f.DownloadFn(ctx, fileID, filename)
}

func (f *fakeFileService) Delete(ctx context.Context, identity models.Identity, fileID string) error {
	return f.DeleteFn(ctx, identity, fileID)
}

func (f *fakeFileService) ShareURL(ctx context.Context, identity models.Identity, fileID string) (string, error) {
	return f.ShareFn(ctx, identity, fileID)
}

type fakeUserService struct {
	RegisterFn func(ctx context.Context, username, email, password string) (*models.User, error)
	LoginFn    func(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshFn  func(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

func (f *fakeUserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	return f.RegisterFn(ctx, username, email, password)
}

func (f *fakeUserService) Login(ctx context.Context, email, password string) (*services.TokenPair, error) {
	return f.LoginFn(ctx, email, password)
}

func (f *fakeUserService) Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
	return f.RefreshFn(ctx, refreshToken)
}

func (f *fakeUserService) ResolveIdentity(ctx context.Context, userID string) (models.Identity, error) {
	if userID == "u1" {
		return models.Identity{ID: "u1", Email: "alice@example.com", Name: "Alice"}, nil
	}
	return models.Identity{}, common.ErrorUnauthorized
}

func (f *fakeUserService) VerifyAccessToken(tokenString string) (string, error) {
	if tokenString == "valid-token" {
		return "u1", nil
	}
	return "", common.ErrInvalidToken
}

func newTestServer(files *fakeFileService, users *fakeUserService) *Server {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewServer(":0", logger, files, users)
}

func doRequest(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)
	return rec
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer valid-token")
	return req
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestList_NoSession(t *testing.T) {
	s := newTestServer(&fakeFileService{}, &fakeUserService{})

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/files", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.False(t, resp.Session)
	assert.Empty(t, resp.Files)
}

func TestList_SessionWithZeroFiles(t *testing.T) {
	files := &fakeFileService{
		ListFn: func(ctx context.Context, identity models.Identity) ([]*models.StoredFile, error) {
			return nil, nil
		},
	}
	s := newTestServer(files, &fakeUserService{})

	rec := doRequest(s, authed(httptest.NewRequest(http.MethodGet, "/api/files", nil)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Session, "a valid session must be visible even with zero files")
	assert.Empty(t, resp.Files)
}

func TestList_MapsDisplayFields(t *testing.T) {
	files := &fakeFileService{
		ListFn: func(ctx context.Context, identity models.Identity) ([]*models.StoredFile, error) {
			return []*models.StoredFile{{
				ID:          "f1",
				Filename:    "report.pdf",
				SizeBytes:   2048,
				ContentType: "application/pdf",
				UploadedAt:  time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
			}}, nil
		},
	}
	s := newTestServer(files, &fakeUserService{})

	rec := doRequest(s, authed(httptest.NewRequest(http.MethodGet, "/api/files", nil)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Files, 1)
	assert.Equal(t, "report.pdf", resp.Files[0].Filename)
	assert.Equal(t, "pdf", resp.Files[0].TypeLabel)
	assert.NotEmpty(t, resp.Files[0].SizeHuman)
}

func TestUpload_Success(t *testing.T) {
	var gotIdentity models.Identity
	files := &fakeFileService{
		UploadFn: func(ctx context.Context, identity models.Identity, filename string, content io.Reader, size int64, contentType string) (*models.StoredFile, error) {
			gotIdentity = identity
			b, _ := io.ReadAll(content)
			require.Equal(t, []byte("%PDF-1.4"), b)
			return &models.StoredFile{ID: "f1", Filename: filename}, nil
		},
	}
	s := newTestServer(files, &fakeUserService{})

	body, contentType := multipartBody(t, "file", "report.pdf", []byte("%PDF-1.4"))
	req := authed(httptest.NewRequest(http.MethodPost, "/api/files", body))
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(s, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "f1", resp.FileID)
	assert.Equal(t, "report.pdf", resp.Filename)
	assert.Equal(t, "alice@example.com", gotIdentity.Email)
}

func TestUpload_NoSession(t *testing.T) {
	s := newTestServer(&fakeFileService{}, &fakeUserService{})

	body, contentType := multipartBody(t, "file", "report.pdf", []byte("x"))
	req := httptest.NewRequest(http.MethodPost, "/api/files", body)
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(s, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpload_MissingFilePart(t *testing.T) {
	s := newTestServer(&fakeFileService{}, &fakeUserService{})

	body, contentType := multipartBody(t, "something-else", "report.pdf", []byte("x"))
	req := authed(httptest.NewRequest(http.MethodPost, "/api/files", body))
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(s, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "no file provided")
}

func TestUpload_TooLarge(t *testing.T) {
	files := &fakeFileService{
		UploadFn: func(ctx context.Context, identity models.Identity, filename string, content io.Reader, size int64, contentType string) (*models.StoredFile, error) {
			return nil, common.ErrFileTooLarge
		},
	}
	s := newTestServer(files, &fakeUserService{})

	body, contentType := multipartBody(t, "file", "big.bin", []byte("x"))
	req := authed(httptest.NewRequest(http.MethodPost, "/api/files", body))
	req.Header.Set("Content-Type", contentType)

	rec := doRequest(s, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownload_Success(t *testing.T) {
	payload := []byte("%PDF-1.4 payload")
	files := &fakeFileService{
		DownloadFn: func(ctx context.Context, fileID, filename string) (*models.StoredFile, io.ReadCloser, error) {
			require.Equal(t, "report.pdf", filename)
			file := &models.StoredFile{Filename: "report.pdf", ContentType: "application/pdf", SizeBytes: int64(len(payload))}
			return file, io.NopCloser(bytes.NewReader(payload)), nil
		},
	}
	s := newTestServer(files, &fakeUserService{})

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/files/download?filename=report.pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, payload, rec.Body.Bytes())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="report.pdf"`)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/pdf")
}

func TestDownload_NotFound(t *testing.T) {
	files := &fakeFileService{
		DownloadFn: func(ctx context.Context, fileID, filename string) (*models.StoredFile, io.ReadCloser, error) {
			return nil, nil, common.ErrorNotFound
		},
	}
	s := newTestServer(files, &fakeUserService{})

	rec := doRequest(s, httptest.NewRequest(http.MethodGet, "/api/files/download?filename=missing.bin", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDelete_Success(t *testing.T) {
	files := &fakeFileService{
		DeleteFn: func(ctx context.Context, identity models.Identity, fileID string) error {
			require.Equal(t, "f1", fileID)
			return nil
		},
	}
	s := newTestServer(files, &fakeUserService{})

	req := authed(httptest.NewRequest(http.MethodDelete, "/api/files", strings.NewReader(`{"fileId":"f1"}`)))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestDelete_MissingID(t *testing.T) {
	s := newTestServer(&fakeFileService{}, &fakeUserService{})

	req := authed(httptest.NewRequest(http.MethodDelete, "/api/files", strings.NewReader(`{}`)))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(s, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid file id")
}

func TestDelete_UnknownID(t *testing.T) {
	files := &fakeFileService{
		DeleteFn: func(ctx context.Context, identity models.Identity, fileID string) error {
			return common.ErrorNotFound
		},
	}
	s := newTestServer(files, &fakeUserService{})

	req := authed(httptest.NewRequest(http.MethodDelete, "/api/files", strings.NewReader(`{"fileId":"0b6f1f1e-3c65-4f5c-9a3f-20a9b1b0a111"}`)))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(s, req)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestShare_Success(t *testing.T) {
	files := &fakeFileService{
		ShareFn: func(ctx context.Context, identity models.Identity, fileID string) (string, error) {
			return "https://storage.example/presigned/key", nil
		},
	}
	s := newTestServer(files, &fakeUserService{})

	rec := doRequest(s, authed(httptest.NewRequest(http.MethodGet, "/api/files/share?fileId=f1", nil)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "presigned")
}

func TestRegister_Success(t *testing.T) {
	users := &fakeUserService{
		RegisterFn: func(ctx context.Context, username, email, password string) (*models.User, error) {
			return &models.User{ID: "u9", UserName: username, Email: email}, nil
		},
	}
	s := newTestServer(&fakeFileService{}, users)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register",
		strings.NewReader(`{"username":"bob","email":"bob@example.com","password":"pw"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(s, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "u9")
}

func TestRegister_MissingFields(t *testing.T) {
	s := newTestServer(&fakeFileService{}, &fakeUserService{})

	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(`{"username":"bob"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(s, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	users := &fakeUserService{
		LoginFn: func(ctx context.Context, email, password string) (*services.TokenPair, error) {
			return nil, common.ErrorUnauthorized
		},
	}
	s := newTestServer(&fakeFileService{}, users)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login",
		strings.NewReader(`{"email":"bob@example.com","password":"wrong"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(s, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefresh_Success(t *testing.T) {
	users := &fakeUserService{
		RefreshFn: func(ctx context.Context, refreshToken string) (*services.TokenPair, error) {
			require.Equal(t, "old", refreshToken)
			return &services.TokenPair{AccessToken: "new-access", RefreshToken: "new-refresh"}, nil
		},
	}
	s := newTestServer(&fakeFileService{}, users)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/refresh", strings.NewReader(`{"refreshToken":"old"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := doRequest(s, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "new-access")
}

func TestInvalidBearerTokenIgnored(t *testing.T) {
	s := newTestServer(&fakeFileService{}, &fakeUserService{})

	req := httptest.NewRequest(http.MethodGet, "/api/files", nil)
	req.Header.Set("Authorization", "Bearer bogus")

	rec := doRequest(s, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp listResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Session)
}
