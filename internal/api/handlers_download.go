// handlers_download.go - Converted artifact download
package api

import (
	"os"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/swiftconvert/backend/internal/filestore"
)

// downloadGracePeriod keeps the artifact around long enough for retries
// before deletion; the retention sweep bounds the worst case.
const downloadGracePeriod = 5 * time.Minute

// DownloadHandlerImpl implements the DownloadHandler interface
type DownloadHandlerImpl struct {
	store *filestore.Store
}

// NewDownloadHandler creates a new download handler instance
func NewDownloadHandler(store *filestore.Store) DownloadHandler {
	return &DownloadHandlerImpl{store: store}
}

// HandleDownload streams a converted artifact and schedules its deletion.
func (h *DownloadHandlerImpl) HandleDownload(c echo.Context) error {
	filename := c.Param("filename")
	if filename == "" {
		return NewValidationError("filename")
	}

	path, err := h.store.OutputPath(filename)
	if err != nil {
		return NewBadRequestError("invalid filename", err)
	}
	if _, err := os.Stat(path); err != nil {
		return NewNotFoundError("file", filename)
	}

	h.store.ScheduleDeletion(path, downloadGracePeriod)
	return c.Attachment(path, filestore.SanitizeFilename(filename))
}
