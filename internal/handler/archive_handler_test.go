package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanting-project/lanting-api/internal/dto"
	"github.com/lanting-project/lanting-api/internal/middleware"
	"github.com/lanting-project/lanting-api/internal/models"
)

type archiveServiceStub struct {
	lastCreate  *dto.CreateArchiveRequest
	lastUpdate  *dto.UpdateArchiveRequest
	lastUserID  int64
	listItems   []models.ArchiveDetail
	listTotal   int
	contentData []byte
	contentErr  error
}

func (s *archiveServiceStub) Create(ctx context.Context, req dto.CreateArchiveRequest, userID int64) (*models.ArchiveDetail, error) {
	s.lastCreate = &req
	s.lastUserID = userID
	return &models.ArchiveDetail{Archive: models.Archive{ID: 7, Title: req.Title}}, nil
}

func (s *archiveServiceStub) Update(ctx context.Context, id int64, req dto.UpdateArchiveRequest, userID int64) (*models.ArchiveDetail, error) {
	s.lastUpdate = &req
	s.lastUserID = userID
	return &models.ArchiveDetail{Archive: models.Archive{ID: id}}, nil
}

func (s *archiveServiceStub) Get(ctx context.Context, id int64, includeComments bool) (*models.ArchiveDetail, error) {
	return &models.ArchiveDetail{Archive: models.Archive{ID: id}}, nil
}

func (s *archiveServiceStub) List(ctx context.Context, q dto.ListArchivesQuery) ([]models.ArchiveDetail, int, error) {
	return s.listItems, s.listTotal, nil
}

func (s *archiveServiceStub) Delete(ctx context.Context, id int64) error { return nil }

func (s *archiveServiceStub) ToggleLike(ctx context.Context, id int64, liked bool) (int64, error) {
	if liked {
		return 1, nil
	}
	return 0, nil
}

func (s *archiveServiceStub) Chapters() []string { return models.Chapters() }

func (s *archiveServiceStub) GetContent(ctx context.Context, filename string) ([]byte, error) {
	return s.contentData, s.contentErr
}

func withClaims(userID int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: userID, RegisteredClaims: jwt.RegisteredClaims{}})
		c.Next()
	}
}

func newArchiveRouter(stub *archiveServiceStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewArchiveHandler(stub, 50*1024*1024)
	r := gin.New()
	r.GET("/archives", h.List)
	r.GET("/archives/chapters", h.Chapters)
	r.GET("/archives/:id", h.Get)
	r.POST("/archives", withClaims(1), h.Create)
	r.POST("/archives/:id", withClaims(1), h.Update)
	r.POST("/archives/:id/like", h.Like)
	return r
}

func multipartBody(t *testing.T, fields map[string][]string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, values := range fields {
		for _, v := range values {
			require.NoError(t, writer.WriteField(key, v))
		}
	}
	for name, data := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestArchiveHandlerCreateParsesSlots(t *testing.T) {
	stub := &archiveServiceStub{}
	router := newArchiveRouter(stub)

	body, contentType := multipartBody(t, map[string][]string{
		"title":          {"史记选读"},
		"chapter":        {models.ChapterLiezhuan},
		"authors":        {"司马迁"},
		"originalUrls":   {"", "https://example.com/x"},
		"pendingOrigIds": {"", "", "42"},
	}, map[string][]byte{
		"a.html": []byte("<html>x</html>"),
	})

	req := httptest.NewRequest(http.MethodPost, "/archives", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, stub.lastCreate)
	assert.Equal(t, int64(1), stub.lastUserID)
	require.Len(t, stub.lastCreate.Slots, 3)

	slot0 := stub.lastCreate.Slots[0]
	require.NotNil(t, slot0.File)
	assert.Equal(t, "a.html", slot0.File.Filename)
	assert.True(t, slot0.HasURL)
	assert.Equal(t, "", slot0.OriginalURL)

	slot1 := stub.lastCreate.Slots[1]
	assert.Nil(t, slot1.File)
	assert.Equal(t, "https://example.com/x", slot1.OriginalURL)

	slot2 := stub.lastCreate.Slots[2]
	assert.Equal(t, int64(42), slot2.PendingOrigID)

	require.NotNil(t, stub.lastCreate.Authors)
	assert.Equal(t, []string{"司马迁"}, *stub.lastCreate.Authors)
	assert.Nil(t, stub.lastCreate.Tags, "absent field stays nil")
}

func TestArchiveHandlerCreateRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewArchiveHandler(&archiveServiceStub{}, 0)
	r := gin.New()
	r.POST("/archives", h.Create)

	body, contentType := multipartBody(t, map[string][]string{"title": {"t"}}, nil)
	req := httptest.NewRequest(http.MethodPost, "/archives", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestArchiveHandlerUpdateParsesStorageUrls(t *testing.T) {
	stub := &archiveServiceStub{}
	router := newArchiveRouter(stub)

	body, contentType := multipartBody(t, map[string][]string{
		"title":       {"t"},
		"chapter":     {models.ChapterShijia},
		"storageUrls": {"archives/origs/a.html"},
	}, nil)

	req := httptest.NewRequest(http.MethodPost, "/archives/7", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, stub.lastUpdate)
	require.Len(t, stub.lastUpdate.Slots, 1)
	assert.Equal(t, "archives/origs/a.html", stub.lastUpdate.Slots[0].StorageURL)
}

func TestArchiveHandlerGetInvalidID(t *testing.T) {
	router := newArchiveRouter(&archiveServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/archives/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestArchiveHandlerLike(t *testing.T) {
	router := newArchiveRouter(&archiveServiceStub{})

	payload, _ := json.Marshal(dto.LikeArchiveRequest{Liked: true})
	req := httptest.NewRequest(http.MethodPost, "/archives/7/like", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"likes":1`)
}

func TestArchiveHandlerChapters(t *testing.T) {
	router := newArchiveRouter(&archiveServiceStub{})

	req := httptest.NewRequest(http.MethodGet, "/archives/chapters", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), models.ChapterSuiyuan)
}
