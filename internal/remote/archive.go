// Package remote keeps full backups in an S3-compatible bucket so a workspace
// can be restored on another machine.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/dmitrijs2005/formdoc/internal/common"
	"github.com/dmitrijs2005/formdoc/internal/logging"
)

// KeyPrefix is the folder all backups are stored under.
const KeyPrefix = "backups/"

// ErrArchiveDisabled is returned when no bucket is configured.
var ErrArchiveDisabled = errors.New("remote archive is not configured")

// Config holds the bucket settings.
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Timeout   time.Duration
}

// Enabled reports whether a bucket is configured.
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

// ObjectAPI is the subset of *s3.Client used by the archive.
type ObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	presignGetObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return s3.NewPresignClient(c).PresignGetObject(ctx, in, optFns...)
	}

	now = time.Now
)

// Object describes a stored backup.
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// Archive pushes and pulls backups.
type Archive struct {
	cfg    Config
	client *s3.Client
	api    ObjectAPI
	log    logging.Logger
}

// New builds an archive for cfg. A disabled config yields an archive whose
// methods return ErrArchiveDisabled.
func New(ctx context.Context, cfg Config, log logging.Logger) (*Archive, error) {
	if log == nil {
		log = logging.Nop()
	}
	a := &Archive{cfg: cfg, log: log}
	if !cfg.Enabled() {
		return a, nil
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	a.client = client
	a.api = client
	return a, nil
}

// NewWithAPI builds an enabled archive over an existing object API.
func NewWithAPI(cfg Config, api ObjectAPI, log logging.Logger) *Archive {
	if log == nil {
		log = logging.Nop()
	}
	return &Archive{cfg: cfg, api: api, log: log}
}

// Enabled reports whether the archive can be used.
func (a *Archive) Enabled() bool {
	return a.cfg.Enabled() && a.api != nil
}

// Key returns the object key for a backup named name pushed at t.
func Key(t time.Time, name string) string {
	t = t.UTC()
	return fmt.Sprintf("%s%04d/%02d/%02d/%s", KeyPrefix, t.Year(), int(t.Month()), t.Day(), path.Base(name))
}

func (a *Archive) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.Timeout > 0 {
		return context.WithTimeout(ctx, a.cfg.Timeout)
	}
	return context.WithCancel(ctx)
}

// Push uploads a backup and returns its key.
func (a *Archive) Push(ctx context.Context, name string, data []byte) (string, error) {
	if !a.Enabled() {
		return "", ErrArchiveDisabled
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	key := Key(now(), name)
	_, err := a.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("push %s: %w", key, err)
	}
	a.log.Info(ctx, "backup pushed", "bucket", a.cfg.Bucket, "key", key, "bytes", len(data))
	return key, nil
}

// maxObjectSize bounds downloaded backups.
var maxObjectSize int64 = common.MaxPayloadSize

// ErrObjectTooLarge is returned when a remote backup exceeds maxObjectSize.
var ErrObjectTooLarge = errors.New("remote backup exceeds size limit")

// Pull downloads the backup stored under key.
func (a *Archive) Pull(ctx context.Context, key string) ([]byte, error) {
	if !a.Enabled() {
		return nil, ErrArchiveDisabled
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	out, err := a.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("pull %s: %w", key, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("pull %s: %w", key, err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(io.LimitReader(out.Body, maxObjectSize+1))
	if err != nil {
		return nil, fmt.Errorf("pull %s: %w", key, err)
	}
	if int64(len(b)) > maxObjectSize {
		return nil, fmt.Errorf("pull %s: %w", key, ErrObjectTooLarge)
	}
	return b, nil
}

// List returns stored backups, newest first.
func (a *Archive) List(ctx context.Context) ([]Object, error) {
	if !a.Enabled() {
		return nil, ErrArchiveDisabled
	}
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	var result []Object
	var token *string
	for {
		out, err := a.api.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(a.cfg.Bucket),
			Prefix:            aws.String(KeyPrefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, fmt.Errorf("list backups: %w", err)
		}
		for _, o := range out.Contents {
			obj := Object{Key: aws.ToString(o.Key), Size: aws.ToInt64(o.Size)}
			if o.LastModified != nil {
				obj.LastModified = *o.LastModified
			}
			result = append(result, obj)
		}
		if !aws.ToBool(out.IsTruncated) || out.NextContinuationToken == nil {
			break
		}
		token = out.NextContinuationToken
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].LastModified.Equal(result[j].LastModified) {
			return result[i].LastModified.After(result[j].LastModified)
		}
		return result[i].Key > result[j].Key
	})
	return result, nil
}

// Latest returns the key of the newest backup.
func (a *Archive) Latest(ctx context.Context) (string, error) {
	objs, err := a.List(ctx)
	if err != nil {
		return "", err
	}
	if len(objs) == 0 {
		return "", fmt.Errorf("no backups under %s: %w", KeyPrefix, common.ErrorNotFound)
	}
	return objs[0].Key, nil
}

// ShareURL returns a presigned download URL valid for ttl. It needs a real S3
// client, so archives built with NewWithAPI cannot share.
func (a *Archive) ShareURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if !a.Enabled() {
		return "", ErrArchiveDisabled
	}
	if a.client == nil {
		return "", fmt.Errorf("share %s: %w", key, common.ErrUnsupported)
	}
	if !strings.HasPrefix(key, KeyPrefix) {
		return "", fmt.Errorf("share %s: %w", key, common.ErrInvalidID)
	}
	req, err := presignGetObject(a.client, ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("share %s: %w", key, err)
	}
	return req.URL, nil
}
