package service

import "fmt"

// Cache key layout. The v3 segment versions the archive payload shape; bump it
// when the cached JSON changes incompatibly.
func archiveDetailKey(id int64) string {
	return fmt.Sprintf("lanting:archives:v3:%d", id)
}

func archiveWithCommentsKey(id int64) string {
	return fmt.Sprintf("lanting:archives:v3:%d:with-comments", id)
}

func archiveListKey() string {
	return "lanting:archives:v3:all"
}

func archiveCommentsKey(id int64) string {
	return fmt.Sprintf("lanting:archive_comments:%d", id)
}

func archiveContentKey(filename string) string {
	return fmt.Sprintf("lanting:archive_content:%s", filename)
}
