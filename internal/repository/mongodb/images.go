package mongodb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/flocktrack/internal/domain/models"
)

const defaultIOTimeout = 30 * time.Second

// ImageStore keeps rendered images in a GridFS bucket, addressed by key.
// Read and write deadlines are bucket state, so every call opens its own
// bucket handle.
type ImageStore struct {
	db         *mongo.Database
	bucketName string
	publicURL  string
	logger     *zap.Logger
}

// NewImageStore opens the named GridFS bucket in the repository's database.
// publicURL prefixes keys to build public links.
func NewImageStore(repo *MongoDBRepository, bucketName, publicURL string, logger *zap.Logger) (*ImageStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &ImageStore{
		db:         repo.Database(),
		bucketName: bucketName,
		publicURL:  strings.TrimSuffix(publicURL, "/"),
		logger:     logger,
	}
	if _, err := s.bucket(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ImageStore) bucket() (*gridfs.Bucket, error) {
	bucket, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(s.bucketName))
	if err != nil {
		return nil, fmt.Errorf("failed to open gridfs bucket %s: %w", s.bucketName, err)
	}
	return bucket, nil
}

// Exists reports whether an image is stored under key.
func (s *ImageStore) Exists(ctx context.Context, key string) (bool, error) {
	bucket, err := s.bucket()
	if err != nil {
		return false, err
	}
	cursor, err := bucket.FindContext(ctx, bson.M{"filename": key}, options.GridFSFind().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("find image %s: %w", key, err)
	}
	defer cursor.Close(ctx)

	found := cursor.Next(ctx)
	if err := cursor.Err(); err != nil {
		return false, fmt.Errorf("find image %s: %w", key, err)
	}
	return found, nil
}

// Put stores data under key.
func (s *ImageStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	bucket, err := s.bucket()
	if err != nil {
		return err
	}
	if err := bucket.SetWriteDeadline(deadline(ctx)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}

	opts := options.GridFSUpload().SetMetadata(bson.M{"contentType": contentType})
	if _, err := bucket.UploadFromStream(key, bytes.NewReader(data), opts); err != nil {
		return fmt.Errorf("upload image %s: %w", key, err)
	}

	s.logger.Info("image stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// Open streams the newest image stored under key.
func (s *ImageStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	bucket, err := s.bucket()
	if err != nil {
		return nil, err
	}
	if err := bucket.SetReadDeadline(deadline(ctx)); err != nil {
		return nil, fmt.Errorf("set read deadline: %w", err)
	}

	stream, err := bucket.OpenDownloadStreamByName(key)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, fmt.Errorf("image %s: %w", key, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", key, err)
	}
	return stream, nil
}

// URL returns the public link of key.
func (s *ImageStore) URL(key string) string {
	return s.publicURL + "/" + strings.TrimPrefix(key, "/")
}

func deadline(ctx context.Context) time.Time {
	if d, ok := ctx.Deadline(); ok {
		return d
	}
	return time.Now().Add(defaultIOTimeout)
}
