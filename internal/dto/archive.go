package dto

// ArchiveMetadata carries the free-text metadata of a create/update request.
// Nil slices/pointers mean "field absent, leave untouched"; empty values mean
// "clear".
type ArchiveMetadata struct {
	Title     string    `form:"title" json:"title" validate:"required"`
	Chapter   string    `form:"chapter" json:"chapter" validate:"required"`
	Remarks   string    `form:"remarks" json:"remarks"`
	Authors   *[]string `form:"authors" json:"authors"`
	Tags      *[]string `form:"tags" json:"tags"`
	Publisher *string   `form:"publisher" json:"publisher"`
	Date      *string   `form:"date" json:"date"`
}

// UploadedFile is one multipart file decoded by the handler.
type UploadedFile struct {
	Filename string
	Data     []byte
}

// ArchiveSlot describes one desired content item, aligned by index across the
// request's parallel arrays. At most one acquisition source applies per slot.
type ArchiveSlot struct {
	File          *UploadedFile
	StorageURL    string
	OriginalURL   string
	HasURL        bool
	PendingOrigID int64
}

// Empty reports whether the slot carries no input at all. An empty-string URL
// entry is still input (it means keep on update) and does not make the slot
// empty.
func (s ArchiveSlot) Empty() bool {
	return s.File == nil && s.StorageURL == "" && !s.HasURL && s.PendingOrigID == 0
}

// CreateArchiveRequest is the decoded create payload.
type CreateArchiveRequest struct {
	ArchiveMetadata
	Slots []ArchiveSlot
}

// UpdateArchiveRequest is the decoded update payload. Slots are matched
// positionally against the archive's existing origs.
type UpdateArchiveRequest struct {
	ArchiveMetadata
	Slots []ArchiveSlot
}

// ListArchivesQuery narrows archive listings.
type ListArchivesQuery struct {
	Chapter  string `form:"chapter"`
	Page     int    `form:"page"`
	PageSize int    `form:"pageSize"`
}

// LikeArchiveRequest toggles the like counter by one.
type LikeArchiveRequest struct {
	Liked bool `json:"liked"`
}

// CreateCommentRequest posts a new comment on an archive.
type CreateCommentRequest struct {
	Nickname string `json:"nickname" validate:"required,max=100"`
	Content  string `json:"content" validate:"required"`
}

// UpdateCommentRequest edits an existing comment's content.
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required"`
}

// ListPendingOrigsQuery filters the pending listing by status.
type ListPendingOrigsQuery struct {
	Status string `form:"status"`
}
