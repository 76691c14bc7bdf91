// Package s3store archives backups in an S3 compatible bucket (AWS S3 or MinIO).
package s3store

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/trezcool/cuaderno/core"
	"github.com/trezcool/cuaderno/core/backup"
)

const contentType = "application/json"

var ErrNoBucket = errors.New("s3 bucket required")

// Store keeps every backup under a common key prefix of a single bucket.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
}

var _ backup.Store = (*Store)(nil)

// New builds the client from the default AWS credentials chain (env, shared config, instance role).
func New(ctx context.Context, conf core.BackupConfig) (*Store, error) {
	if conf.S3Bucket == "" {
		return nil, ErrNoBucket
	}
	region := conf.S3Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, errors.Wrap(err, "loading aws config")
	}
	return newWithConfig(awsCfg, conf), nil
}

func newWithConfig(awsCfg aws.Config, conf core.BackupConfig, optFns ...func(*s3.Options)) *Store {
	client := s3.NewFromConfig(awsCfg, append([]func(*s3.Options){func(o *s3.Options) {
		o.UsePathStyle = conf.S3PathStyle
		if conf.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.S3Endpoint)
		}
	}}, optFns...)...)
	return &Store{client: client, bucket: conf.S3Bucket, prefix: conf.S3Prefix}
}

func (s *Store) objectKey(key string) string {
	if strings.HasPrefix(key, s.prefix) {
		return key
	}
	return s.prefix + key
}

func (s *Store) Put(ctx context.Context, key string, data []byte) (backup.Info, error) {
	key = s.objectKey(key)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return backup.Info{}, errors.Wrapf(err, "putting %s", key)
	}
	return backup.Info{Key: key, Size: int64(len(data)), LastModified: time.Now().UTC()}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	key = s.objectKey(key)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		return nil, errors.Wrapf(err, "getting %s", key)
	}
	defer func() { _ = out.Body.Close() }()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", key)
	}
	return data, nil
}

func (s *Store) List(ctx context.Context) ([]backup.Info, error) {
	var (
		infos []backup.Info
		token *string
	)
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(s.bucket),
			Prefix:            aws.String(s.prefix),
			ContinuationToken: token,
		})
		if err != nil {
			return nil, errors.Wrap(err, "listing backups")
		}
		for _, obj := range out.Contents {
			infos = append(infos, backup.Info{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
		if aws.ToBool(out.IsTruncated) && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}
