package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeHost struct {
	mu       sync.Mutex
	err      error
	uploads  int
	deleted  []string
	lastType string
}

func (f *fakeHost) Upload(_ context.Context, obj Object) (Asset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	f.lastType = obj.ContentType
	if f.err != nil {
		return Asset{}, f.err
	}
	_, _ = io.Copy(io.Discard, obj.Body)
	return Asset{URL: "https://cdn.example/images/a.jpg", Handle: "images/a.jpg"}, nil
}

func (f *fakeHost) Delete(_ context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, handle)
	return f.err
}

func TestNormalize_ShrinksLargeImages(t *testing.T) {
	obj, err := Normalize(bytes.NewReader(pngBytes(t, 3200, 800)))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", obj.ContentType)

	img, err := imaging.Decode(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, 1600, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())
}

func TestNormalize_KeepsSmallImages(t *testing.T) {
	obj, err := Normalize(bytes.NewReader(pngBytes(t, 64, 32)))
	require.NoError(t, err)
	img, err := imaging.Decode(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(64, 32), img.Bounds().Size())
}

func TestProxyUpload(t *testing.T) {
	host := &fakeHost{}
	p := NewProxy(host)

	asset, err := p.Upload(context.Background(), bytes.NewReader(pngBytes(t, 10, 10)))
	require.NoError(t, err)
	assert.Equal(t, "images/a.jpg", asset.Handle)
	assert.Equal(t, "image/jpeg", host.lastType)

	_, err = p.Upload(context.Background(), strings.NewReader("not an image"))
	assert.ErrorIs(t, err, ErrUpload)
	assert.Equal(t, 1, host.uploads)
}

func TestProxyUpload_NoHost(t *testing.T) {
	_, err := NewProxy(nil).Upload(context.Background(), bytes.NewReader(pngBytes(t, 2, 2)))
	assert.ErrorIs(t, err, ErrUpload)
}

func TestProxyBreakerOpens(t *testing.T) {
	host := &fakeHost{err: errors.New("host down")}
	p := NewProxy(host)
	img := pngBytes(t, 2, 2)

	for i := 0; i < 5; i++ {
		_, err := p.Upload(context.Background(), bytes.NewReader(img))
		require.ErrorIs(t, err, ErrUpload)
	}
	_, err := p.Upload(context.Background(), bytes.NewReader(img))
	assert.ErrorIs(t, err, ErrUpload)
	assert.Equal(t, 5, host.uploads, "open breaker must not reach the host")
}

func multipartRequest(t *testing.T, field string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, "photo.png")
		require.NoError(t, err)
		_, err = fw.Write(body)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("title", "x"))
	}
	require.NoError(t, mw.Close())

	r := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func TestUploadForm(t *testing.T) {
	p := NewProxy(&fakeHost{})

	asset, err := p.UploadForm(httptest.NewRecorder(), multipartRequest(t, "image", pngBytes(t, 4, 4)), "image")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/images/a.jpg", asset.URL)

	_, err = p.UploadForm(httptest.NewRecorder(), multipartRequest(t, "", nil), "image")
	assert.ErrorIs(t, err, ErrNoFile)

	r := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader("{}"))
	r.Header.Set("Content-Type", "application/json")
	_, err = p.UploadForm(httptest.NewRecorder(), r, "image")
	assert.ErrorIs(t, err, ErrNoFile)
}

func TestUploadForm_BodyLimit(t *testing.T) {
	host := &fakeHost{}
	p := NewProxy(host)
	p.maxSize = 512

	_, err := p.UploadForm(httptest.NewRecorder(), multipartRequest(t, "image", bytes.Repeat([]byte{0xff}, 4096)), "image")
	assert.ErrorIs(t, err, ErrTooBig)
	assert.Zero(t, host.uploads)
}

func TestProxyDelete(t *testing.T) {
	host := &fakeHost{}
	require.NoError(t, NewProxy(host).Delete(context.Background(), "images/old.jpg"))
	assert.Equal(t, []string{"images/old.jpg"}, host.deleted)
}

type fakeS3 struct {
	put *s3.PutObjectInput
	del *s3.DeleteObjectInput
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.del = in
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Host(t *testing.T) {
	client := &fakeS3{}
	h := newS3Host(client, S3Config{Bucket: "recipes", Endpoint: "http://minio:9000/"})
	h.now = func() time.Time { return time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC) }

	asset, err := h.Upload(context.Background(), Object{Body: strings.NewReader("jpeg"), Size: 4, ContentType: "image/jpeg"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(asset.Handle, "images/2026/03/07/"))
	assert.True(t, strings.HasSuffix(asset.Handle, ".jpg"))
	assert.Equal(t, "http://minio:9000/recipes/"+asset.Handle, asset.URL)
	assert.Equal(t, "recipes", aws.ToString(client.put.Bucket))
	assert.Equal(t, int64(4), aws.ToInt64(client.put.ContentLength))

	require.NoError(t, h.Delete(context.Background(), asset.Handle))
	assert.Equal(t, asset.Handle, aws.ToString(client.del.Key))
}

func TestS3Host_DefaultPublicURL(t *testing.T) {
	h := newS3Host(&fakeS3{}, S3Config{Bucket: "recipes", Region: "eu-west-1"})
	assert.Equal(t, "https://recipes.s3.eu-west-1.amazonaws.com", h.publicURL)

	h = newS3Host(&fakeS3{}, S3Config{Bucket: "recipes", PublicURL: "https://cdn.example/"})
	assert.Equal(t, "https://cdn.example", h.publicURL)
}
