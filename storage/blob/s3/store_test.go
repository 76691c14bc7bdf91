package s3store

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/cuaderno/core"
)

// fakeS3 serves the subset of the S3 REST API used by Store (path style requests).
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	pages   int // keys per list page
}

func (f *fakeS3) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.SplitN(strings.TrimPrefix(req.URL.Path, "/"), "/", 2)
	key := ""
	if len(parts) == 2 {
		key = parts[1]
	}

	switch {
	case req.Method == http.MethodGet && req.URL.Query().Get("list-type") == "2":
		return f.list(req), nil
	case req.Method == http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		f.objects[key] = body
		return response(http.StatusOK, nil, http.Header{"ETag": {`"etag"`}}), nil
	case req.Method == http.MethodGet:
		body, ok := f.objects[key]
		if !ok {
			return response(http.StatusNotFound, []byte(`<Error><Code>NoSuchKey</Code></Error>`), http.Header{"Content-Type": {"application/xml"}}), nil
		}
		return response(http.StatusOK, body, http.Header{"Content-Length": {strconv.Itoa(len(body))}}), nil
	}
	return response(http.StatusNotImplemented, nil, nil), nil
}

func (f *fakeS3) list(req *http.Request) *http.Response {
	prefix := req.URL.Query().Get("prefix")
	start, _ := strconv.Atoi(req.URL.Query().Get("continuation-token"))

	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	end := len(keys)
	if f.pages > 0 && start+f.pages < end {
		end = start + f.pages
	}
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><ListBucketResult>`)
	if end < len(keys) {
		fmt.Fprintf(&b, "<IsTruncated>true</IsTruncated><NextContinuationToken>%d</NextContinuationToken>", end)
	} else {
		b.WriteString("<IsTruncated>false</IsTruncated>")
	}
	for _, k := range keys[start:end] {
		fmt.Fprintf(&b, "<Contents><Key>%s</Key><Size>%d</Size><LastModified>2025-10-06T00:00:00Z</LastModified></Contents>", k, len(f.objects[k]))
	}
	b.WriteString("</ListBucketResult>")
	return response(http.StatusOK, []byte(b.String()), http.Header{"Content-Type": {"application/xml"}})
}

func response(status int, body []byte, header http.Header) *http.Response {
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewReader(body)), Header: header}
}

func newTestStore(t *testing.T, fake *fakeS3) *Store {
	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion("us-east-1"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("AKIA", "SECRET", "")),
	)
	require.NoError(t, err)
	conf := core.BackupConfig{S3Bucket: "backups", S3Endpoint: "https://mock.s3.local", S3PathStyle: true, S3Prefix: "cuaderno/"}
	return newWithConfig(awsCfg, conf, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: fake}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})
}

func TestNew_requiresBucket(t *testing.T) {
	_, err := New(context.Background(), core.BackupConfig{})
	assert.Equal(t, ErrNoBucket, err)
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	fake := &fakeS3{objects: map[string][]byte{"other/file.json": []byte(`{}`)}, pages: 1}
	store := newTestStore(t, fake)

	data := []byte(`{"activities":[]}`)
	info, err := store.Put(ctx, "cuaderno-profesor-backup-2025-10-06.json", data)
	require.NoError(t, err)
	assert.Equal(t, "cuaderno/cuaderno-profesor-backup-2025-10-06.json", info.Key)
	assert.Equal(t, int64(len(data)), info.Size)

	_, err = store.Put(ctx, "cuaderno/cuaderno-profesor-backup-2025-10-07.json", data)
	require.NoError(t, err)
	assert.Contains(t, fake.objects, "cuaderno/cuaderno-profesor-backup-2025-10-07.json")

	got, err := store.Get(ctx, "cuaderno-profesor-backup-2025-10-06.json")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// two pages, sorted by key, other prefixes ignored
	infos, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "cuaderno/cuaderno-profesor-backup-2025-10-06.json", infos[0].Key)
	assert.Equal(t, "cuaderno/cuaderno-profesor-backup-2025-10-07.json", infos[1].Key)
	assert.Equal(t, int64(len(data)), infos[1].Size)

	_, err = store.Get(ctx, "missing.json")
	assert.Error(t, err)
}
