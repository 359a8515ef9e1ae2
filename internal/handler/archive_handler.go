package handler

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lanting-project/lanting-api/internal/dto"
	"github.com/lanting-project/lanting-api/internal/models"
	appErrors "github.com/lanting-project/lanting-api/pkg/errors"
	"github.com/lanting-project/lanting-api/pkg/response"
)

type archiveService interface {
	Create(ctx context.Context, req dto.CreateArchiveRequest, userID int64) (*models.ArchiveDetail, error)
	Update(ctx context.Context, id int64, req dto.UpdateArchiveRequest, userID int64) (*models.ArchiveDetail, error)
	Get(ctx context.Context, id int64, includeComments bool) (*models.ArchiveDetail, error)
	List(ctx context.Context, q dto.ListArchivesQuery) ([]models.ArchiveDetail, int, error)
	Delete(ctx context.Context, id int64) error
	ToggleLike(ctx context.Context, id int64, liked bool) (int64, error)
	Chapters() []string
	GetContent(ctx context.Context, filename string) ([]byte, error)
}

// ArchiveHandler manages archive HTTP endpoints.
type ArchiveHandler struct {
	service     archiveService
	maxFileSize int64
}

// NewArchiveHandler constructs the handler.
func NewArchiveHandler(service archiveService, maxFileSize int64) *ArchiveHandler {
	return &ArchiveHandler{service: service, maxFileSize: maxFileSize}
}

// parseMetadata extracts archive metadata from a multipart form. Dimension
// fields keep their absent/present-but-empty distinction: a missing key leaves
// the pointer nil, a present key (even with only blank values) produces a
// non-nil pointer.
func parseMetadata(form *multipart.Form) dto.ArchiveMetadata {
	first := func(key string) string {
		if values, ok := form.Value[key]; ok && len(values) > 0 {
			return strings.TrimSpace(values[0])
		}
		return ""
	}

	meta := dto.ArchiveMetadata{
		Title:   first("title"),
		Chapter: first("chapter"),
		Remarks: first("remarks"),
	}
	if values, ok := form.Value["authors"]; ok {
		authors := trimAll(values)
		meta.Authors = &authors
	}
	if values, ok := form.Value["tags"]; ok {
		tags := trimAll(values)
		meta.Tags = &tags
	}
	if _, ok := form.Value["publisher"]; ok {
		publisher := first("publisher")
		meta.Publisher = &publisher
	}
	if _, ok := form.Value["date"]; ok {
		date := first("date")
		meta.Date = &date
	}
	return meta
}

func trimAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// parseSlots assembles slot descriptors from the parallel form arrays, aligned
// by index: files, storageUrls, originalUrls, pendingOrigIds.
func (h *ArchiveHandler) parseSlots(form *multipart.Form) ([]dto.ArchiveSlot, error) {
	files := form.File["files"]
	storages := form.Value["storageUrls"]
	urls := form.Value["originalUrls"]
	pendings := form.Value["pendingOrigIds"]

	n := len(files)
	for _, l := range []int{len(storages), len(urls), len(pendings)} {
		if l > n {
			n = l
		}
	}

	slots := make([]dto.ArchiveSlot, n)
	for i := 0; i < n; i++ {
		if i < len(files) {
			if h.maxFileSize > 0 && files[i].Size > h.maxFileSize {
				return nil, appErrors.Clone(appErrors.ErrValidation, "uploaded file exceeds the size limit")
			}
			data, err := readUpload(files[i])
			if err != nil {
				return nil, err
			}
			slots[i].File = &dto.UploadedFile{Filename: files[i].Filename, Data: data}
		}
		if i < len(storages) {
			slots[i].StorageURL = strings.TrimSpace(storages[i])
		}
		if i < len(urls) {
			slots[i].HasURL = true
			slots[i].OriginalURL = strings.TrimSpace(urls[i])
		}
		if i < len(pendings) && strings.TrimSpace(pendings[i]) != "" {
			id, err := strconv.ParseInt(strings.TrimSpace(pendings[i]), 10, 64)
			if err != nil || id <= 0 {
				return nil, appErrors.Clone(appErrors.ErrValidation, "invalid pending orig id")
			}
			slots[i].PendingOrigID = id
		}
	}
	return slots, nil
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	src, err := header.Open()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload")
	}
	defer src.Close() //nolint:errcheck
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	return data, nil
}

// Create godoc
// @Summary Create an archive with content slots
// @Tags Archives
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Title"
// @Param chapter formData string true "Chapter"
// @Param remarks formData string false "Remarks"
// @Param authors formData []string false "Authors, ordered"
// @Param tags formData []string false "Tags"
// @Param publisher formData string false "Publisher"
// @Param date formData string false "Date"
// @Param files formData file false "Uploaded content, aligned by slot"
// @Param originalUrls formData []string false "URLs to snapshot, aligned by slot"
// @Param pendingOrigIds formData []string false "Pending orig ids to claim, aligned by slot"
// @Success 201 {object} response.Envelope
// @Router /archives [post]
func (h *ArchiveHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "multipart form required"))
		return
	}

	slots, err := h.parseSlots(form)
	if err != nil {
		response.Error(c, err)
		return
	}
	req := dto.CreateArchiveRequest{ArchiveMetadata: parseMetadata(form), Slots: slots}

	detail, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Update godoc
// @Summary Update an archive, reconciling its content slots
// @Tags Archives
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Archive ID"
// @Param storageUrls formData []string false "Stored paths to keep, aligned by slot"
// @Success 200 {object} response.Envelope
// @Router /archives/{id} [post]
func (h *ArchiveHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "multipart form required"))
		return
	}

	slots, err := h.parseSlots(form)
	if err != nil {
		response.Error(c, err)
		return
	}
	req := dto.UpdateArchiveRequest{ArchiveMetadata: parseMetadata(form), Slots: slots}

	detail, err := h.service.Update(c.Request.Context(), id, req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// List godoc
// @Summary List archives
// @Tags Archives
// @Produce json
// @Param chapter query string false "Chapter filter"
// @Param page query int false "Page"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /archives [get]
func (h *ArchiveHandler) List(c *gin.Context) {
	var q dto.ListArchivesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid list query"))
		return
	}

	items, total, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	var pagination *models.Pagination
	if q.PageSize > 0 {
		page := q.Page
		if page < 1 {
			page = 1
		}
		pagination = &models.Pagination{Page: page, PageSize: q.PageSize, TotalCount: total}
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get one archive
// @Tags Archives
// @Produce json
// @Param id path int true "Archive ID"
// @Param include query string false "Set to comments to embed comments"
// @Success 200 {object} response.Envelope
// @Router /archives/{id} [get]
func (h *ArchiveHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	includeComments := c.Query("include") == "comments"

	detail, err := h.service.Get(c.Request.Context(), id, includeComments)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Chapters godoc
// @Summary List the closed chapter set
// @Tags Archives
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /archives/chapters [get]
func (h *ArchiveHandler) Chapters(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.service.Chapters(), nil)
}

// Content godoc
// @Summary Read stored content by filename
// @Tags Archives
// @Produce octet-stream
// @Param filename path string true "Stored content filename"
// @Success 200 {file} binary
// @Router /archives/content/{filename} [get]
func (h *ArchiveHandler) Content(c *gin.Context) {
	filename := c.Param("filename")

	data, err := h.service.GetContent(c.Request.Context(), filename)
	if err != nil {
		response.Error(c, err)
		return
	}

	contentType := mime.TypeByExtension(path.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Data(http.StatusOK, contentType, data)
}

// Like godoc
// @Summary Like or unlike an archive
// @Tags Archives
// @Accept json
// @Produce json
// @Param id path int true "Archive ID"
// @Success 200 {object} response.Envelope
// @Router /archives/{id}/like [post]
func (h *ArchiveHandler) Like(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.LikeArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid like payload"))
		return
	}

	likes, err := h.service.ToggleLike(c.Request.Context(), id, req.Liked)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"id": id, "likes": likes}, nil)
}

// Delete godoc
// @Summary Delete an archive and everything it owns
// @Tags Archives
// @Produce json
// @Param id path int true "Archive ID"
// @Success 204
// @Router /archives/{id} [delete]
func (h *ArchiveHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
