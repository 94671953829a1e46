package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"

	"github.com/Qiyd81/flightsurety-2/internal/surety"
)

// ArchiveConfig locates the object storage bucket for snapshot archives.
type ArchiveConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// Every archives one snapshot per this many committed transitions.
	Every uint64
}

// Archiver uploads every Nth snapshot to a MinIO bucket.
type Archiver struct {
	client *minio.Client
	bucket string
	every  uint64
	log    logrus.FieldLogger
}

// NewArchiver connects to the object store.  It does not touch the bucket;
// call EnsureBucket before the first save.
func NewArchiver(cfg ArchiveConfig, log logrus.FieldLogger) (*Archiver, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("store: minio client: %w", err)
	}
	return &Archiver{client: client, bucket: cfg.Bucket, every: cfg.Every, log: log}, nil
}

// EnsureBucket creates the archive bucket when it does not exist yet.
func (a *Archiver) EnsureBucket(ctx context.Context) error {
	ok, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("store: bucket lookup: %w", err)
	}
	if ok {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("store: create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// SaveSnapshot uploads snap when its sequence number falls on the archive
// interval.
func (a *Archiver) SaveSnapshot(ctx context.Context, snap surety.Snapshot) error {
	if !a.due(snap.Seq) {
		return nil
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("store: marshal snapshot: %w", err)
	}
	name := ObjectName(snap.Seq)
	_, err = a.client.PutObject(ctx, a.bucket, name, bytes.NewReader(body), int64(len(body)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("store: upload %s: %w", name, err)
	}
	a.log.WithFields(logrus.Fields{"object": name, "bytes": len(body)}).Info("store: snapshot archived")
	return nil
}

func (a *Archiver) due(seq uint64) bool {
	return a.every > 0 && seq > 0 && seq%a.every == 0
}

// ObjectName is the archive key of the snapshot taken at seq.  Names sort
// in sequence order.
func ObjectName(seq uint64) string {
	return fmt.Sprintf("snapshots/%020d.json", seq)
}

// Tee fans one snapshot out to several sinks and joins their errors.
type Tee []surety.SnapshotSink

func (t Tee) SaveSnapshot(ctx context.Context, snap surety.Snapshot) error {
	var errs []error
	for _, s := range t {
		if err := s.SaveSnapshot(ctx, snap); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
