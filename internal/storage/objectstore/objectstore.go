// Package objectstore хранит синтезированное аудио в S3-совместимом хранилище
// и выдает на него временные ссылки.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/magabrotheeeer/speech-translator/internal/config"
	"github.com/magabrotheeeer/speech-translator/internal/lib/errs"
)

const audioContentType = "audio/mpeg"

// Store клиент бакета с аудиофайлами.
type Store struct {
	client     *minio.Client
	bucket     string
	presignTTL time.Duration
}

// New подключается к хранилищу и создает бакет, если его еще нет.
func New(ctx context.Context, cfg config.ObjectStorage) (*Store, error) {
	const op = "objectstore.New"

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to init S3 client: %w", op, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to check bucket: %w", op, errs.Classify(err))
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("%s: failed to create bucket %q: %w", op, cfg.Bucket, err)
		}
	}

	return &Store{
		client:     client,
		bucket:     cfg.Bucket,
		presignTTL: cfg.PresignTTL,
	}, nil
}

// PutAudio загружает MP3 под ключом key и возвращает временную ссылку на него.
func (s *Store) PutAudio(ctx context.Context, key string, data []byte) (string, error) {
	const op = "objectstore.PutAudio"

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  audioContentType,
		UserMetadata: map[string]string{"uploaded-at": time.Now().UTC().Format(time.RFC3339)},
	})
	if err != nil {
		return "", fmt.Errorf("%s: upload failed: %w", op, errs.Classify(err))
	}

	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignTTL, nil)
	if err != nil {
		return "", fmt.Errorf("%s: presign failed: %w", op, err)
	}
	return u.String(), nil
}
