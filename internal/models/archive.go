package models

import "time"

// Chapter labels form a closed set; anything else is rejected at validation.
const (
	ChapterBenji    = "本纪"
	ChapterShijia   = "世家"
	ChapterSoushen  = "搜神"
	ChapterLiezhuan = "列传"
	ChapterYouxia   = "游侠"
	ChapterQunxiang = "群像"
	ChapterSuiyuan  = "随园食单"
)

// Chapters returns the closed chapter set in display order.
func Chapters() []string {
	return []string{
		ChapterBenji,
		ChapterShijia,
		ChapterSoushen,
		ChapterLiezhuan,
		ChapterYouxia,
		ChapterQunxiang,
		ChapterSuiyuan,
	}
}

// IsValidChapter reports whether the label is part of the closed set.
func IsValidChapter(chapter string) bool {
	for _, c := range Chapters() {
		if c == chapter {
			return true
		}
	}
	return false
}

// StorageTypeS3 tags origs persisted to the object-store backend.
const StorageTypeS3 = "s3"

// Archive is one logical document record.
type Archive struct {
	ID        int64     `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Chapter   string    `db:"chapter" json:"chapter"`
	Remarks   string    `db:"remarks" json:"remarks"`
	Likes     int64     `db:"likes" json:"likes"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ArchiveOrig is one stored content item of an archive. Position is the slot
// index reconciliation matches on; rows within an archive are kept dense and
// zero-based.
type ArchiveOrig struct {
	ID          int64     `db:"id" json:"id"`
	ArchiveID   int64     `db:"archive_id" json:"archiveId"`
	Position    int       `db:"position" json:"position"`
	OriginalURL *string   `db:"original_url" json:"originalUrl,omitempty"`
	StorageURL  string    `db:"storage_url" json:"storageUrl"`
	FileType    *string   `db:"file_type" json:"fileType,omitempty"`
	StorageType string    `db:"storage_type" json:"storageType"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `db:"updated_at" json:"updatedAt"`
}

// Author is a shared dimension row, unique on name.
type Author struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Tag is a shared dimension row, unique on name.
type Tag struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Publisher is a shared dimension row, unique on name.
type Publisher struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// DateValue is a shared dimension row, unique on its text value.
type DateValue struct {
	ID    int64  `db:"id" json:"id"`
	Value string `db:"value" json:"value"`
}

// Comment belongs to one archive.
type Comment struct {
	ID        int64     `db:"id" json:"id"`
	ArchiveID int64     `db:"archive_id" json:"archiveId"`
	Nickname  string    `db:"nickname" json:"nickname"`
	Content   string    `db:"content" json:"content"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ArchiveDetail is an archive with its relations resolved.
type ArchiveDetail struct {
	Archive
	Authors   []string      `json:"authors"`
	Tags      []string      `json:"tags"`
	Publisher *string       `json:"publisher,omitempty"`
	Date      *string       `json:"date,omitempty"`
	Origs     []ArchiveOrig `json:"origs"`
	Comments  []Comment     `json:"comments,omitempty"`
}

// Pagination describes list paging metadata.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
