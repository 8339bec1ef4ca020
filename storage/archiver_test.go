package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/Dosada05/live-scoring/models"
)

type fakeUploader struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (f *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*UploadResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	f.key, f.contentType, f.body = key, contentType, body
	return &UploadResult{Key: key, Location: f.GetPublicURL(key)}, nil
}

func (f *fakeUploader) GetPublicURL(key string) string {
	return joinPublicURL("https://cdn.example.com/archive", key)
}

func TestMatchArchiver_Archive(t *testing.T) {
	up := &fakeUploader{}
	winner := "t1"
	m := &models.Match{ID: "abc", Sport: models.SportTennis, Status: models.StatusCompleted, Winner: &winner}

	res, err := NewMatchArchiver(up).Archive(context.Background(), m)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if up.key != "matches/tennis/abc.json" || up.contentType != "application/json" {
		t.Errorf("uploaded %q as %q", up.key, up.contentType)
	}
	if res.Location != "https://cdn.example.com/archive/matches/tennis/abc.json" {
		t.Errorf("location = %q", res.Location)
	}

	var decoded models.Match
	if err := json.Unmarshal(up.body, &decoded); err != nil {
		t.Fatalf("archived body is not a match: %v", err)
	}
	if decoded.ID != "abc" || decoded.Winner == nil || *decoded.Winner != "t1" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestMatchArchiver_UploadError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewMatchArchiver(&fakeUploader{err: boom}).Archive(context.Background(), &models.Match{ID: "x"})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want upload error", err)
	}
}

func TestJoinPublicURL(t *testing.T) {
	tests := []struct {
		base, key, want string
	}{
		{"https://cdn.example.com", "a/b.json", "https://cdn.example.com/a/b.json"},
		{"https://cdn.example.com/x/", "/a.json", "https://cdn.example.com/x/a.json"},
		{"https://cdn.example.com/x", "a.json", "https://cdn.example.com/x/a.json"},
		{"", "a.json", ""},
		{"https://cdn.example.com", "", ""},
	}
	for _, tt := range tests {
		if got := joinPublicURL(tt.base, tt.key); got != tt.want {
			t.Errorf("joinPublicURL(%q, %q) = %q, want %q", tt.base, tt.key, got, tt.want)
		}
	}
}

func TestCloudflareR2UploaderConfig_Enabled(t *testing.T) {
	if (CloudflareR2UploaderConfig{}).Enabled() {
		t.Error("empty config must be disabled")
	}
	cfg := CloudflareR2UploaderConfig{AccountID: "a", AccessKeyID: "k", SecretAccessKey: "s", BucketName: "b"}
	if !cfg.Enabled() {
		t.Error("complete config must be enabled")
	}
}
