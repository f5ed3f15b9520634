package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/yungbote/hotel-reservation-prediction/internal/platform/logger"
)

const transferTimeout = 5 * time.Minute

// ErrObjectNotFound is returned, wrapped, for a missing bucket object.
var ErrObjectNotFound = storage.ErrObjectNotExist

// ObjectStore moves whole objects between a bucket and the local filesystem.
type ObjectStore interface {
	DownloadToFile(ctx context.Context, bucket, object, dst string) (int64, error)
	UploadFile(ctx context.Context, bucket, object, src string) error
	Exists(ctx context.Context, bucket, object string) (bool, error)
	ListObjects(ctx context.Context, bucket, prefix string) ([]string, error)
	Close() error
}

type objectStore struct {
	log          *logger.Logger
	client       *storage.Client
	mode         ObjectStorageMode
	emulatorHost string
	httpClient   *http.Client
}

func NewObjectStore(ctx context.Context, log *logger.Logger, cfg ObjectStorageConfig) (ObjectStore, error) {
	if err := ValidateObjectStorageConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	client, err := newStorageClientForMode(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	storeLog := log.With("service", "ObjectStore")
	storeLog.Info("Object storage initialized", "mode", cfg.Mode, "emulator_host", cfg.EmulatorHost)
	return &objectStore{
		log:          storeLog,
		client:       client,
		mode:         cfg.Mode,
		emulatorHost: strings.TrimRight(cfg.EmulatorHost, "/"),
		httpClient:   &http.Client{Timeout: transferTimeout},
	}, nil
}

func newStorageClientForMode(ctx context.Context, cfg ObjectStorageConfig) (*storage.Client, error) {
	switch cfg.Mode {
	case ObjectStorageModeGCS:
		opts := append(ClientOptionsFromEnv(), option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ObjectStorageModeGCSEmulator:
		_ = os.Setenv("STORAGE_EMULATOR_HOST", strings.TrimRight(cfg.EmulatorHost, "/"))
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ObjectStorageConfigError{Code: ObjectStorageConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}

func (s *objectStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

// DownloadToFile streams bucket/object into dst. The file is written next to
// dst and renamed into place, so a failed download never leaves a partial file.
func (s *objectStore) DownloadToFile(ctx context.Context, bucket, object, dst string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, transferTimeout)
	defer cancel()

	r, err := s.openReader(ctx, bucket, object)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return 0, fmt.Errorf("create destination dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	n, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr != nil || closeErr != nil {
		_ = os.Remove(tmp.Name())
		if copyErr != nil {
			return n, fmt.Errorf("read gs://%s/%s: %w", bucket, object, copyErr)
		}
		return n, fmt.Errorf("close temp file: %w", closeErr)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		_ = os.Remove(tmp.Name())
		return n, fmt.Errorf("move download into place: %w", err)
	}
	s.log.Debug("Object downloaded", "bucket", bucket, "object", object, "dst", dst, "bytes", n)
	return n, nil
}

func (s *objectStore) openReader(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	if s.mode == ObjectStorageModeGCSEmulator {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.emulatorMediaURL(bucket, object), nil)
		if err != nil {
			return nil, fmt.Errorf("build emulator download request: %w", err)
		}
		resp, err := s.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("emulator download request: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusNotFound {
				return nil, fmt.Errorf("gs://%s/%s: %w", bucket, object, storage.ErrObjectNotExist)
			}
			return nil, fmt.Errorf("emulator download failed: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return resp.Body, nil
	}
	r, err := s.client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("open gs://%s/%s: %w", bucket, object, err)
	}
	return r, nil
}

func (s *objectStore) UploadFile(ctx context.Context, bucket, object, src string) error {
	ctx, cancel := context.WithTimeout(ctx, transferTimeout)
	defer cancel()

	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open upload source: %w", err)
	}
	defer f.Close()

	w := s.client.Bucket(bucket).Object(object).NewWriter(ctx)
	if ct := contentTypeForKey(object); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gs://%s/%s: %w", bucket, object, err)
	}
	return nil
}

func (s *objectStore) Exists(ctx context.Context, bucket, object string) (bool, error) {
	_, err := s.client.Bucket(bucket).Object(object).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *objectStore) ListObjects(ctx context.Context, bucket, prefix string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	it := s.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	out := []string{}
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, attrs.Name)
	}
	return out, nil
}

func (s *objectStore) emulatorMediaURL(bucket, object string) string {
	return fmt.Sprintf("%s/storage/v1/b/%s/o/%s?alt=media", s.emulatorHost, url.PathEscape(bucket), url.PathEscape(object))
}

func contentTypeForKey(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	case ".png":
		return "image/png"
	case ".log", ".txt":
		return "text/plain"
	default:
		return ""
	}
}

// URI renders the gs:// form of an object location.
func URI(bucket, object string) string {
	return "gs://" + bucket + "/" + strings.TrimLeft(object, "/")
}
