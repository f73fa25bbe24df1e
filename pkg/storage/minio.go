// Package storage 提供了与对象存储服务（如 MinIO）交互的功能。
package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"contextai-go/internal/config"
	"contextai-go/pkg/log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore 保存上传的原始文件。
type ObjectStore struct {
	client *minio.Client
	bucket string
}

// InitMinIO 初始化 MinIO 客户端并确保指定的存储桶存在。
func InitMinIO(ctx context.Context, cfg config.MinIOConfig) (*ObjectStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 MinIO 客户端失败: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("检查 MinIO 存储桶失败: %w", err)
	}
	if !exists {
		log.Infof("存储桶 '%s' 不存在，正在创建...", cfg.BucketName)
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("创建 MinIO 存储桶失败: %w", err)
		}
	}
	log.Infof("MinIO 客户端初始化成功, bucket: %s", cfg.BucketName)
	return &ObjectStore{client: client, bucket: cfg.BucketName}, nil
}

// ObjectName 返回文档原始文件的对象名 <document_id>/<filename>。
func ObjectName(documentID, fileName string) string {
	return documentID + "/" + path.Base(fileName)
}

// Put 写入一个对象。
func (s *ObjectStore) Put(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		log.Errorf("上传对象到 MinIO 失败, object: %s, error: %v", objectName, err)
		return fmt.Errorf("failed to put object %s: %w", objectName, err)
	}
	return nil
}

// Remove 删除一个对象，对象不存在时不报错。
func (s *ObjectStore) Remove(ctx context.Context, objectName string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		log.Errorf("从 MinIO 删除对象失败, object: %s, error: %v", objectName, err)
		return fmt.Errorf("failed to remove object %s: %w", objectName, err)
	}
	return nil
}
