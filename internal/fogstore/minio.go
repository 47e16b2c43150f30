package fogstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Minio persists fog blobs as JSON objects in an object-storage bucket, one
// object per scene.
type Minio struct {
	client *minio.Client
	bucket string

	mu       sync.Mutex
	handlers map[string][]func()
}

// MinioConfig carries connection settings; empty fields fall back to the
// MINIO_ENDPOINT / MINIO_ACCESS_KEY / MINIO_SECRET_KEY environment.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Secure    bool
}

func NewMinio(cfg MinioConfig) (*Minio, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = os.Getenv("MINIO_ENDPOINT")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "minio:9000"
	}
	if cfg.AccessKey == "" {
		cfg.AccessKey = os.Getenv("MINIO_ACCESS_KEY")
	}
	if cfg.SecretKey == "" {
		cfg.SecretKey = os.Getenv("MINIO_SECRET_KEY")
	}
	if cfg.Bucket == "" {
		cfg.Bucket = "scene-fog"
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return &Minio{
		client:   client,
		bucket:   cfg.Bucket,
		handlers: make(map[string][]func()),
	}, nil
}

func objectKey(sceneID string) string {
	return "fog/" + sceneID + ".json"
}

func (m *Minio) Get(ctx context.Context, sceneID string) (*Blob, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, objectKey(sceneID), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		if resp := minio.ToErrorResponse(err); resp.Code == "NoSuchKey" {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	var blob Blob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return &blob, nil
}

func (m *Minio) Put(ctx context.Context, sceneID string, blob *Blob) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	if !exists {
		if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreFailure, err)
		}
	}
	data, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	_, err = m.client.PutObject(ctx, m.bucket, objectKey(sceneID),
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreFailure, err)
	}
	return nil
}

func (m *Minio) OnReset(sceneID string, fn func()) {
	m.mu.Lock()
	m.handlers[sceneID] = append(m.handlers[sceneID], fn)
	m.mu.Unlock()
}

// FireReset runs the reset handlers for a scene. The server calls this when
// a reset broadcast arrives over its transport.
func (m *Minio) FireReset(sceneID string) {
	m.mu.Lock()
	handlers := append([]func(){}, m.handlers[sceneID]...)
	m.mu.Unlock()
	for _, fn := range handlers {
		fn()
	}
}
