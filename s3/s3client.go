package s3client

import (
	"bytes"
	"context"

	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"
)

var Client *minio.Client

func EnsureBucket(ctx context.Context, bucketName string) error {
	if Client == nil {
		return errors.New("S3 клиент не инициализирован")
	}
	exists, err := Client.BucketExists(ctx, bucketName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return Client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
}

func Upload(ctx context.Context, bucketName, objectName string, body []byte, contentType string) error {
	if Client == nil {
		return errors.New("S3 клиент не инициализирован")
	}
	_, err := Client.PutObject(ctx, bucketName, objectName, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: contentType})
	return err
}
