package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"matchmaking/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrInvalidObject 对象参数不合法
var ErrInvalidObject = errors.New("invalid object")

const defaultPresignTTL = 15 * time.Minute

// NewClient 创建 MinIO / S3 兼容客户端
func NewClient(cfg config.StorageConfig) (*minio.Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("storage endpoint is required")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return client, nil
}

// S3Storage 资料照片的对象存储
type S3Storage struct {
	client     *minio.Client
	bucket     string
	presignTTL time.Duration

	ensureOnce sync.Once
	ensureErr  error
}

// NewS3Storage 创建S3Storage实例
func NewS3Storage(client *minio.Client, bucket string, presignTTL time.Duration) *S3Storage {
	if presignTTL <= 0 {
		presignTTL = defaultPresignTTL
	}
	return &S3Storage{
		client:     client,
		bucket:     strings.TrimSpace(bucket),
		presignTTL: presignTTL,
	}
}

// EnsureBucket 确保存储桶存在，只执行一次
func (s *S3Storage) EnsureBucket(ctx context.Context) error {
	if s.client == nil {
		return fmt.Errorf("storage client is nil")
	}
	if s.bucket == "" {
		return fmt.Errorf("storage bucket is empty")
	}

	s.ensureOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.ensureErr = err
			return
		}
		if exists {
			return
		}
		s.ensureErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
	})

	if s.ensureErr != nil {
		return fmt.Errorf("ensure bucket %q: %w", s.bucket, s.ensureErr)
	}
	return nil
}

// Put 上传对象
func (s *S3Storage) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if key == "" || body == nil || size <= 0 {
		return ErrInvalidObject
	}
	if err := s.EnsureBucket(ctx); err != nil {
		return err
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// URL 生成带时效的访问地址
func (s *S3Storage) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrInvalidObject
	}
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign object: %w", err)
	}
	return presigned.String(), nil
}

// Delete 删除单个对象
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// DeletePrefix 删除前缀下的全部对象（资料注销时清理照片）
func (s *S3Storage) DeletePrefix(ctx context.Context, prefix string) error {
	if prefix == "" {
		return ErrInvalidObject
	}
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true})
	for result := range s.client.RemoveObjects(ctx, s.bucket, objects, minio.RemoveObjectsOptions{}) {
		if result.Err != nil {
			return fmt.Errorf("delete object %s: %w", result.ObjectName, result.Err)
		}
	}
	return nil
}

// PhotoKey 生成照片对象Key：profiles/<profile_id>/<name><ext>
func PhotoKey(profileID, name, ext string) string {
	return "profiles/" + profileID + "/" + name + strings.ToLower(ext)
}

// ProfilePrefix 资料照片的公共前缀
func ProfilePrefix(profileID string) string {
	return "profiles/" + profileID + "/"
}
