package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/Dosada05/live-scoring/models"
)

// Archiver keeps a copy of finished matches outside the primary store.
type Archiver interface {
	Archive(ctx context.Context, m *models.Match) (*UploadResult, error)
}

type matchArchiver struct {
	uploader FileUploader
}

func NewMatchArchiver(uploader FileUploader) Archiver {
	return &matchArchiver{uploader: uploader}
}

// ArchiveKey is the object key of an archived match document.
func ArchiveKey(m *models.Match) string {
	return fmt.Sprintf("matches/%s/%s.json", m.Sport, m.ID)
}

func (a *matchArchiver) Archive(ctx context.Context, m *models.Match) (*UploadResult, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode match %s for archive: %w", m.ID, err)
	}
	return a.uploader.Upload(ctx, ArchiveKey(m), "application/json", bytes.NewReader(data))
}
