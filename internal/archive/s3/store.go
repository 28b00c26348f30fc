// Package s3 keeps archived profiles as JSON objects in an S3-compatible
// bucket (AWS S3 or MinIO). Search scans every stored profile.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"chronomap/internal/archive"
	"chronomap/internal/profile"
)

const (
	extension   = ".json"
	contentType = "application/json"

	metaSchemaVersion = "schema-version"
	metaSources       = "sources"
	metaEvents        = "events"
	metaSavedAt       = "saved-at"
)

var _ archive.Archive = (*Store)(nil)

type Store struct {
	client *s3.Client
	bucket string
	prefix string
	now    func() time.Time
}

type Config struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string // optional; enables a custom endpoint such as MinIO
	AccessKeyID     string // optional; falls back to the default credentials chain
	SecretAccessKey string
	SessionToken    string
	PathStyle       bool
}

// ParseURL reads s3://bucket/prefix?region=..&endpoint=..&path_style=true.
func ParseURL(raw string) (Config, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("parsing s3 URL: %w", err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return Config{}, fmt.Errorf("invalid s3 URL %q, expected s3://bucket/prefix", raw)
	}
	q := u.Query()
	cfg := Config{
		Bucket:   u.Host,
		Prefix:   strings.Trim(u.Path, "/"),
		Region:   q.Get("region"),
		Endpoint: q.Get("endpoint"),
	}
	if v := q.Get("path_style"); v != "" {
		cfg.PathStyle, err = strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parsing path_style: %w", err)
		}
	}
	return cfg, nil
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newStore(client, cfg.Bucket, cfg.Prefix), nil
}

func newStore(client *s3.Client, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/"), now: time.Now}
}

// EnsureSchema checks that the bucket is reachable. Objects need no schema.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: &s.bucket}); err != nil {
		return fmt.Errorf("checking bucket %s: %w", s.bucket, err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error { return nil }

func (s *Store) key(name string) string {
	if s.prefix == "" {
		return name + extension
	}
	return path.Join(s.prefix, name+extension)
}

func (s *Store) listPrefix() string {
	if s.prefix == "" {
		return ""
	}
	return s.prefix + "/"
}

func (s *Store) nameOf(key string) (string, bool) {
	rest := strings.TrimPrefix(key, s.listPrefix())
	if strings.Contains(rest, "/") || !strings.HasSuffix(rest, extension) {
		return "", false
	}
	return strings.TrimSuffix(rest, extension), true
}

func (s *Store) Save(ctx context.Context, p *profile.Profile) error {
	if err := archive.ValidateName(p.ProfileName); err != nil {
		return err
	}
	document, err := profile.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile: %w", err)
	}
	summary := archive.Summarize(p, s.now())
	key := s.key(p.ProfileName)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        bytes.NewReader(document),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			metaSchemaVersion: summary.SchemaVersion,
			metaSources:       strconv.Itoa(summary.Sources),
			metaEvents:        strconv.Itoa(summary.Events),
			metaSavedAt:       summary.SavedAt.Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return fmt.Errorf("putting %s: %w", key, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, name string) (*profile.Profile, error) {
	key := s.key(name)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", name, archive.ErrNotFound)
		}
		return nil, fmt.Errorf("getting %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	p, err := profile.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("decoding profile %s: %w", name, err)
	}
	return p, nil
}

func (s *Store) List(ctx context.Context) ([]archive.Summary, error) {
	keys, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]archive.Summary, 0, len(keys))
	for _, obj := range keys {
		out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: aws.String(obj.key)})
		if err != nil {
			return nil, fmt.Errorf("heading %s: %w", obj.key, err)
		}
		summaries = append(summaries, summaryFromMetadata(obj.name, out.Metadata, obj.modified))
	}
	return summaries, nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	key := s.key(name)
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%s: %w", name, archive.ErrNotFound)
		}
		return fmt.Errorf("heading %s: %w", key, err)
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

func (s *Store) Search(ctx context.Context, query string) ([]archive.Hit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, archive.ErrEmptyQuery
	}
	keys, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}
	hits := []archive.Hit{}
	for _, obj := range keys {
		p, err := s.Load(ctx, obj.name)
		if err != nil {
			return nil, err
		}
		hits = append(hits, archive.Match(obj.name, archive.Index(p), query)...)
	}
	archive.SortHits(hits)
	return hits, nil
}

type object struct {
	key      string
	name     string
	modified time.Time
}

func (s *Store) keys(ctx context.Context) ([]object, error) {
	prefix := s.listPrefix()
	var objects []object
	var token *string
	for {
		out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: &s.bucket, Prefix: &prefix, ContinuationToken: token})
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", s.bucket, err)
		}
		for _, obj := range out.Contents {
			key := aws.ToString(obj.Key)
			name, ok := s.nameOf(key)
			if !ok {
				continue
			}
			objects = append(objects, object{key: key, name: name, modified: aws.ToTime(obj.LastModified)})
		}
		if out.IsTruncated != nil && *out.IsTruncated && out.NextContinuationToken != nil {
			token = out.NextContinuationToken
			continue
		}
		break
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].name < objects[j].name })
	return objects, nil
}

func summaryFromMetadata(name string, md map[string]string, modified time.Time) archive.Summary {
	s := archive.Summary{Name: name, SchemaVersion: md[metaSchemaVersion], SavedAt: modified.UTC()}
	s.Sources, _ = strconv.Atoi(md[metaSources])
	s.Events, _ = strconv.Atoi(md[metaEvents])
	if t, err := time.Parse(time.RFC3339Nano, md[metaSavedAt]); err == nil {
		s.SavedAt = t.UTC()
	}
	return s
}

func isNotFound(err error) bool {
	var re *awshttp.ResponseError
	return errors.As(err, &re) && re.HTTPStatusCode() == 404
}
