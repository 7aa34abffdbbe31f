package s3infra

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObjects struct {
	puts      map[string]string
	headErr   error
	createErr error
	created   bool
	deleted   []string
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, _ := io.ReadAll(in.Body)
	if f.puts == nil {
		f.puts = map[string]string{}
	}
	f.puts[aws.ToString(in.Key)] = aws.ToString(in.ContentType) + ":" + string(b)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeObjects) HeadBucket(context.Context, *s3.HeadBucketInput, ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func (f *fakeObjects) CreateBucket(context.Context, *s3.CreateBucketInput, ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	f.created = true
	return &s3.CreateBucketOutput{}, f.createErr
}

type fakePresigner struct{ ttl time.Duration }

func (f *fakePresigner) PresignGetObject(_ context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	var o s3.PresignOptions
	for _, fn := range optFns {
		fn(&o)
	}
	f.ttl = o.Expires
	return &v4.PresignedHTTPRequest{URL: "https://signed/" + aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)}, nil
}

func TestStore_UploadAndPresign(t *testing.T) {
	objs := &fakeObjects{}
	pre := &fakePresigner{}
	s := &Store{client: objs, presigner: pre, bucket: "reports"}

	loc, err := s.Upload(context.Background(), "reports/u1/r.pdf", strings.NewReader("%PDF"), "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "s3://reports/reports/u1/r.pdf", loc)
	assert.Equal(t, "application/pdf:%PDF", objs.puts["reports/u1/r.pdf"])

	url, err := s.PresignedURL(context.Background(), "reports/u1/r.pdf", 15*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "https://signed/reports/reports/u1/r.pdf", url)
	assert.Equal(t, 15*time.Minute, pre.ttl)

	require.NoError(t, s.Delete(context.Background(), "reports/u1/r.pdf"))
	assert.Equal(t, []string{"reports/u1/r.pdf"}, objs.deleted)
}

func TestStore_EnsureBucket(t *testing.T) {
	existing := &fakeObjects{}
	require.NoError(t, (&Store{client: existing, bucket: "b"}).EnsureBucket(context.Background()))
	assert.False(t, existing.created)

	missing := &fakeObjects{headErr: errors.New("not found")}
	require.NoError(t, (&Store{client: missing, bucket: "b"}).EnsureBucket(context.Background()))
	assert.True(t, missing.created)

	owned := &fakeObjects{headErr: errors.New("forbidden"), createErr: &types.BucketAlreadyOwnedByYou{}}
	require.NoError(t, (&Store{client: owned, bucket: "b"}).EnsureBucket(context.Background()))

	broken := &fakeObjects{headErr: errors.New("down"), createErr: errors.New("down")}
	assert.Error(t, (&Store{client: broken, bucket: "b"}).EnsureBucket(context.Background()))
}
