package services

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"reaction-hand/models"
)

const (
	exportPageSize  = 500
	exportKeyLayout = "2006-01-02T15-04-05Z"
)

// JournalReader liest Journal-Einträge seitenweise, aufsteigend nach ID.
type JournalReader interface {
	ListSince(ctx context.Context, since time.Time, afterID uint, limit int) ([]models.ReactionLog, error)
}

// ObjectStore ist der vom Exporter genutzte Ausschnitt von *s3.Client.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Exporter schreibt Journal-Einträge als gzip-komprimiertes JSONL nach S3.
type Exporter struct {
	Journal JournalReader
	Store   ObjectStore
	Bucket  string
	Prefix  string
	Logger  *zap.Logger
	Now     func() time.Time
}

// NewExporter erstellt einen neuen Exporter.
func NewExporter(journal JournalReader, store ObjectStore, bucket, prefix string, logger *zap.Logger) *Exporter {
	return &Exporter{
		Journal: journal,
		Store:   store,
		Bucket:  bucket,
		Prefix:  strings.Trim(prefix, "/"),
		Logger:  logger,
		Now:     time.Now,
	}
}

// ExportResult beschreibt einen abgeschlossenen Export.
type ExportResult struct {
	Key     string
	Entries int
	Bytes   int
}

// Run exportiert alle Einträge seit dem letzten Export und rotiert danach alte Exporte.
func (e *Exporter) Run(ctx context.Context, keep int) (*ExportResult, error) {
	since, err := e.LastExport(ctx)
	if err != nil {
		return nil, err
	}
	result, err := e.Export(ctx, since)
	if err != nil {
		return nil, err
	}
	if keep > 0 {
		if _, err := e.Rotate(ctx, keep); err != nil {
			return result, err
		}
	}
	return result, nil
}

// LastExport liefert den Zeitstempel des neuesten Exports oder die Nullzeit, wenn es keinen gibt.
func (e *Exporter) LastExport(ctx context.Context) (time.Time, error) {
	keys, err := e.listKeys(ctx)
	if err != nil {
		return time.Time{}, err
	}

	var last time.Time
	for _, key := range keys {
		ts := strings.TrimSuffix(strings.TrimPrefix(key, e.keyPrefix()), ".jsonl.gz")
		t, err := time.Parse(exportKeyLayout, ts)
		if err != nil {
			e.Logger.Warn("Ignoring object with unexpected export key", zap.String("key", key))
			continue
		}
		if t.After(last) {
			last = t
		}
	}
	return last, nil
}

// Export lädt alle Einträge nach since hoch, die bis zum Start des Exports angelegt wurden.
// Ohne neue Einträge wird nichts hochgeladen und ein leeres ExportResult zurückgegeben.
func (e *Exporter) Export(ctx context.Context, since time.Time) (*ExportResult, error) {
	cutoff := e.Now().UTC().Truncate(time.Second)

	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	encoder := json.NewEncoder(gzipWriter)

	count := 0
	var afterID uint
	for {
		page, err := e.Journal.ListSince(ctx, since, afterID, exportPageSize)
		if err != nil {
			return nil, fmt.Errorf("read journal: %w", err)
		}
		for i := range page {
			afterID = page[i].ID
			// Spätere Einträge übernimmt der nächste Export.
			if page[i].CreatedAt.After(cutoff) {
				continue
			}
			if err := encoder.Encode(&page[i]); err != nil {
				return nil, fmt.Errorf("encode entry %d: %w", page[i].ID, err)
			}
			count++
		}
		if len(page) < exportPageSize {
			break
		}
	}
	if err := gzipWriter.Close(); err != nil {
		return nil, fmt.Errorf("compress export: %w", err)
	}

	if count == 0 {
		e.Logger.Info("No journal entries to export", zap.Time("since", since))
		return &ExportResult{}, nil
	}

	key := e.objectKey(cutoff)
	_, err := e.Store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:          aws.String(e.Bucket),
		Key:             aws.String(key),
		Body:            bytes.NewReader(buf.Bytes()),
		ContentType:     aws.String("application/x-ndjson"),
		ContentEncoding: aws.String("gzip"),
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	e.Logger.Info("Journal exported",
		zap.String("bucket", e.Bucket),
		zap.String("key", key),
		zap.Int("entries", count),
		zap.Int("bytes", buf.Len()))

	return &ExportResult{Key: key, Entries: count, Bytes: buf.Len()}, nil
}

// Rotate löscht alle Exporte bis auf die neuesten keep.
func (e *Exporter) Rotate(ctx context.Context, keep int) (int, error) {
	keys, err := e.listKeys(ctx)
	if err != nil {
		return 0, err
	}

	if len(keys) <= keep {
		e.Logger.Debug("No export rotation needed", zap.Int("exports", len(keys)), zap.Int("keep", keep))
		return 0, nil
	}

	// Schlüssel enthalten den UTC-Zeitstempel und sind damit lexikographisch sortierbar.
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	deleted := 0
	for _, key := range keys[keep:] {
		_, err := e.Store.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(e.Bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			e.Logger.Error("Failed to delete old export", zap.String("key", key), zap.Error(err))
			continue
		}
		e.Logger.Info("Deleted old export", zap.String("key", key))
		deleted++
	}
	return deleted, nil
}

func (e *Exporter) listKeys(ctx context.Context) ([]string, error) {
	var keys []string
	var token *string
	for {
		out, err := e.Store.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(e.Bucket),
			Prefix:            aws.String(e.keyPrefix()),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list exports: %w", err)
		}
		for _, obj := range out.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if !aws.ToBool(out.IsTruncated) {
			return keys, nil
		}
		token = out.NextContinuationToken
	}
}

func (e *Exporter) keyPrefix() string {
	if e.Prefix == "" {
		return "reactions-"
	}
	return e.Prefix + "/reactions-"
}

func (e *Exporter) objectKey(t time.Time) string {
	return fmt.Sprintf("%s%s.jsonl.gz", e.keyPrefix(), t.UTC().Format(exportKeyLayout))
}
