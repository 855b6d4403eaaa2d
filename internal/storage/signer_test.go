package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"singular both", "notification/image/a.png", "notifications/images/a.png"},
		{"singular collection", "notification/images/a.png", "notifications/images/a.png"},
		{"singular segment", "notifications/image/a.png", "notifications/images/a.png"},
		{"already normalized", "notifications/images/a.png", "notifications/images/a.png"},
		{"other prefix untouched", "avatars/a.png", "avatars/a.png"},
		{"http url untouched", "http://cdn.example.com/a.png", "http://cdn.example.com/a.png"},
		{"https url untouched", "https://cdn.example.com/a.png", "https://cdn.example.com/a.png"},
		{"nested path preserved", "notification/image/2026/08/a.png", "notifications/images/2026/08/a.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKey(tt.key))
		})
	}
}

type fakePresigner struct {
	err     error
	gotKeys []string
}

func (f *fakePresigner) PresignGetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.gotKeys = append(f.gotKeys, *params.Key)
	if f.err != nil {
		return nil, f.err
	}
	return &v4.PresignedHTTPRequest{URL: "https://bucket.s3/" + *params.Key + "?X-Amz-Signature=sig"}, nil
}

func newTestSigner(p presigner) *URLSigner {
	return &URLSigner{
		presign:   p,
		bucket:    "public-bucket",
		expiresIn: 600 * time.Second,
		logger:    zap.NewNop(),
	}
}

func TestSignURL(t *testing.T) {
	t.Run("signs normalized key", func(t *testing.T) {
		p := &fakePresigner{}
		s := newTestSigner(p)

		url := s.SignURL(context.Background(), "notification/image/a.png")
		assert.Equal(t, "https://bucket.s3/notifications/images/a.png?X-Amz-Signature=sig", url)
		assert.Equal(t, []string{"notifications/images/a.png"}, p.gotKeys)
	})

	t.Run("full urls pass through unsigned", func(t *testing.T) {
		p := &fakePresigner{}
		s := newTestSigner(p)

		url := s.SignURL(context.Background(), "https://cdn.example.com/a.png")
		assert.Equal(t, "https://cdn.example.com/a.png", url)
		assert.Empty(t, p.gotKeys)
	})

	t.Run("sign failure falls back to the original path", func(t *testing.T) {
		p := &fakePresigner{err: errors.New("no credentials")}
		s := newTestSigner(p)

		url := s.SignURL(context.Background(), "notification/image/a.png")
		assert.Equal(t, "notification/image/a.png", url)
	})
}

func TestSignURLs(t *testing.T) {
	p := &fakePresigner{}
	s := newTestSigner(p)

	urls := s.SignURLs(context.Background(), []string{
		"notifications/images/a.png",
		"https://cdn.example.com/b.png",
	})
	assert.Equal(t, []string{
		"https://bucket.s3/notifications/images/a.png?X-Amz-Signature=sig",
		"https://cdn.example.com/b.png",
	}, urls)

	assert.Nil(t, s.SignURLs(context.Background(), nil))
}
