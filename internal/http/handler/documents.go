package handler

import (
	"fmt"
	"mime/multipart"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"doclib/internal/apperr"
	"doclib/internal/model"
	"doclib/internal/service"
	"doclib/internal/storage"
)

// uploadResponse wraps per-file outcomes of a batch upload.
type uploadResponse struct {
	Results []model.UploadResult `json:"results"`
}

// pageParams reads page and size. Missing values become 0 and are rejected by the service.
func pageParams(c *fiber.Ctx) (model.PageRequest, bool) {
	var req model.PageRequest
	var err error
	if s := c.Query("page"); s != "" {
		if req.Page, err = strconv.Atoi(s); err != nil {
			return req, false
		}
	}
	if s := c.Query("size"); s != "" {
		if req.Size, err = strconv.Atoi(s); err != nil {
			return req, false
		}
	}
	return req, true
}

// documentID validates the :id path parameter.
func documentID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// ListDocuments returns one page of document summaries.
//
// @Summary List documents
// @Tags pdfs
// @Produce json
// @Param page query int true "1-based page number"
// @Param size query int true "page size"
// @Success 200 {object} model.DocumentPage
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /pdfs [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		req, ok := pageParams(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "page and size must be integers")
		}
		res, err := svc.List(c.UserContext(), req)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// SearchDocuments filters by title, author or tag substring.
//
// @Summary Search documents
// @Tags pdfs
// @Produce json
// @Param title query string false "title substring"
// @Param author query string false "author substring"
// @Param tag query string false "tag substring"
// @Param page query int true "1-based page number"
// @Param size query int true "page size"
// @Success 200 {object} model.DocumentPage
// @Failure 400 {object} errorPayload
// @Router /pdfs/search [get]
func SearchDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		paging, ok := pageParams(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAGE", "page and size must be integers")
		}
		res, err := svc.Search(c.UserContext(), model.SearchRequest{
			Title:       c.Query("title"),
			Author:      c.Query("author"),
			Tag:         c.Query("tag"),
			PageRequest: paging,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// GetMetadata returns a document with its tags.
//
// @Summary Document metadata
// @Tags pdfs
// @Produce json
// @Param id path string true "document id"
// @Success 200 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /pdfs/metadata/{id} [get]
func GetMetadata(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// GetBlob streams the stored PDF.
//
// @Summary Download PDF
// @Tags pdfs
// @Produce application/pdf
// @Param id path string true "document id"
// @Success 200 {file} file
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /pdfs/{id} [get]
func GetBlob(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		name, data, err := svc.GetBlob(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", name))
		return c.Send(data)
	}
}

// UpdateDocument patches metadata. An omitted tags field keeps the tags; an empty list clears them.
//
// @Summary Update document
// @Tags pdfs
// @Accept json
// @Produce json
// @Param id path string true "document id"
// @Param body body model.DocumentUpdate true "fields to change"
// @Success 200 {object} model.Document
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Router /pdfs/{id} [patch]
func UpdateDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var upd model.DocumentUpdate
		if err := c.BodyParser(&upd); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		doc, err := svc.Update(c.UserContext(), id, upd)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DeleteDocument removes a document and its file.
//
// @Summary Delete document
// @Tags pdfs
// @Param id path string true "document id"
// @Success 204
// @Failure 404 {object} errorPayload
// @Router /pdfs/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// UploadDocuments accepts one or more PDFs in repeated "file" fields.
// Responds 201 when every file was created and 207 otherwise.
//
// @Summary Upload PDFs
// @Tags pdfs
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF file (repeatable)"
// @Success 201 {object} uploadResponse
// @Success 207 {object} uploadResponse
// @Failure 400 {object} errorPayload
// @Router /pdfs [post]
func UploadDocuments(svc service.DocumentService, stagingDir string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		form, err := c.MultipartForm()
		if err != nil || len(form.File["file"]) == 0 {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		parts := form.File["file"]
		results := make([]model.UploadResult, len(parts))
		staged := make([]model.StagedFile, 0, len(parts))
		slots := make([]int, 0, len(parts))
		for i, fh := range parts {
			name := baseName(fh.Filename)
			if err := storage.ValidateName(name); err != nil {
				results[i] = model.UploadResult{FileName: name, Status: model.UploadFailed, Kind: apperr.KindValidation, Error: "invalid file name"}
				continue
			}
			tmp, err := stage(c, fh, stagingDir)
			if err != nil {
				results[i] = model.UploadResult{FileName: name, Status: model.UploadFailed, Error: "cannot read uploaded file"}
				continue
			}
			staged = append(staged, model.StagedFile{OriginalName: name, Path: tmp})
			slots = append(slots, i)
		}

		for j, res := range svc.UploadFiles(c.UserContext(), staged) {
			results[slots[j]] = publicResult(res)
		}

		status := fiber.StatusCreated
		for _, res := range results {
			if res.Status != model.UploadCreated {
				status = fiber.StatusMultiStatus
				break
			}
		}
		return c.Status(status).JSON(uploadResponse{Results: results})
	}
}

// publicResult replaces failure details with a message safe to return to clients.
func publicResult(res model.UploadResult) model.UploadResult {
	switch {
	case res.Status == model.UploadConflict:
		res.Error = "document already exists"
	case res.Status != model.UploadFailed:
	case res.Kind == apperr.KindValidation:
		res.Error = "not a readable PDF file"
	default:
		res.Error = "upload failed"
	}
	return res
}

// baseName drops any directory part of a client file name, with either separator.
func baseName(name string) string {
	return path.Base(strings.ReplaceAll(name, `\`, "/"))
}

// stage saves a multipart part under a random name in dir.
func stage(c *fiber.Ctx, fh *multipart.FileHeader, dir string) (string, error) {
	dst := filepath.Join(dir, "upload-"+uuid.NewString()+".pdf")
	if err := c.SaveFile(fh, dst); err != nil {
		return "", err
	}
	return dst, nil
}
