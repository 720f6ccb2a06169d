package controllers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/samber/lo"

	"github.com/decorhub/decorhub/config"
	"github.com/decorhub/decorhub/pkg/apperr"
	"github.com/decorhub/decorhub/pkg/ctx"
	"github.com/decorhub/decorhub/pkg/storage"
)

// imageTypes maps sniffed content types to the stored file extension.
var imageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

var uploadFolders = []string{"categories", "products", "uploads"}

// Upload is the JSON answer to a successful upload. URL goes straight into
// a category mainImage or product image.
type Upload struct {
	Path string `json:"path"`
	URL  string `json:"url"`
}

type UploadController struct {
	disk     storage.Disk
	maxBytes int64
}

func NewUploadController(disk storage.Disk) *UploadController {
	max, err := strconv.ParseInt(config.Get("UPLOAD_MAX_BYTES", "5242880"), 10, 64)
	if err != nil || max <= 0 {
		max = 5 << 20
	}
	return &UploadController{disk: disk, maxBytes: max}
}

// Store POST /api/admin/uploads (multipart: file, optional folder)
func (uc *UploadController) Store(c *ctx.Context) {
	c.R.Body = http.MaxBytesReader(c.W, c.R.Body, uc.maxBytes+(1<<16))
	if err := c.R.ParseMultipartForm(1 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.Fail(fileError(fmt.Sprintf("The file must not be larger than %d bytes.", uc.maxBytes)))
			return
		}
		c.Fail(fileError("The request must be multipart/form-data with a file field."))
		return
	}
	defer c.R.MultipartForm.RemoveAll() //nolint:errcheck

	folder := c.R.FormValue("folder")
	if folder == "" {
		folder = "uploads"
	}
	if !lo.Contains(uploadFolders, folder) {
		c.Fail(apperr.Validation(apperr.FieldError{Field: "folder", Message: "The selected folder is invalid."}))
		return
	}

	file, header, err := c.R.FormFile("file")
	if err != nil {
		c.Fail(fileError("The file field is required."))
		return
	}
	defer file.Close()
	if header.Size > uc.maxBytes {
		c.Fail(fileError(fmt.Sprintf("The file must not be larger than %d bytes.", uc.maxBytes)))
		return
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		c.Fail(fileError("The file must be an image."))
		return
	}
	contentType := http.DetectContentType(head[:n])
	ext, ok := imageTypes[contentType]
	if !ok {
		c.Fail(fileError("The file must be an image (jpeg, png, gif, webp)."))
		return
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		c.Fail(fmt.Errorf("upload: rewind: %w", err))
		return
	}

	key := folder + "/" + randomName() + ext
	if err := uc.disk.Put(c.Context(), key, file, contentType); err != nil {
		c.Fail(fmt.Errorf("upload: store %s: %w", key, err))
		return
	}
	c.Logger().Info("image uploaded", "path", key, "bytes", header.Size)
	c.Created(Upload{Path: key, URL: uc.disk.URL(key)})
}

func fileError(msg string) error {
	return apperr.Validation(apperr.FieldError{Field: "file", Message: msg})
}

func randomName() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
