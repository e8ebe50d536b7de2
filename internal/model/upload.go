package model

import "doclib/internal/apperr"

// UploadItem is a staged PDF with its extracted preview, ready to be stored.
type UploadItem struct {
	Title     string
	FileName  string
	Author    *string
	PageCount *int32
	Thumbnail string
	BlobPath  string
}

// StagedFile is an uploaded part persisted to the staging directory.
type StagedFile struct {
	OriginalName string
	Path         string
}

// UploadStatus is the outcome of one item of a batch upload.
type UploadStatus string

const (
	UploadCreated  UploadStatus = "created"
	UploadConflict UploadStatus = "conflict"
	UploadFailed   UploadStatus = "failed"
)

// UploadResult reports the outcome of one item. Document is set only when Status is UploadCreated.
// Kind classifies the failure and is never serialized.
type UploadResult struct {
	FileName string       `json:"file_name"`
	Status   UploadStatus `json:"status"`
	Document *Document    `json:"document,omitempty"`
	Error    string       `json:"error,omitempty"`
	Kind     apperr.Kind  `json:"-"`
}
