package utils

import (
	"bytes"
	"fmt"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// SupabaseStorage lưu văn bản đã trích xuất của tài liệu trên Supabase Storage.
// Path: <bucket>/texts/<ownerID>/<documentID>.txt
type SupabaseStorage struct {
	client *storage.Client
	bucket string
}

func NewSupabaseStorage(supabaseURL, supabaseKey, bucket string) *SupabaseStorage {
	client := storage.NewClient(strings.TrimRight(supabaseURL, "/")+"/storage/v1", supabaseKey, nil)
	return &SupabaseStorage{client: client, bucket: bucket}
}

func TextObjectPath(ownerID, documentID string) string {
	return fmt.Sprintf("texts/%s/%s.txt", ownerID, documentID)
}

func (s *SupabaseStorage) UploadText(objectPath, text string) error {
	contentType := "text/plain; charset=utf-8"
	upsert := true
	_, err := s.client.UploadFile(s.bucket, objectPath, bytes.NewBufferString(text), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return fmt.Errorf("upload Supabase thất bại: %w", err)
	}
	return nil
}

func (s *SupabaseStorage) DownloadText(objectPath string) (string, error) {
	data, err := s.client.DownloadFile(s.bucket, objectPath)
	if err != nil {
		return "", fmt.Errorf("tải file Supabase thất bại: %w", err)
	}
	return string(data), nil
}

func (s *SupabaseStorage) Remove(objectPath string) error {
	if _, err := s.client.RemoveFile(s.bucket, []string{objectPath}); err != nil {
		return fmt.Errorf("xóa file Supabase thất bại: %w", err)
	}
	return nil
}
