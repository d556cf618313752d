package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"recipehub/logging"
	"recipehub/metrics"

	gobreaker "github.com/sony/gobreaker/v2"
)

const maxUploadSize = 10 << 20

// Proxy fronts a Host with image normalisation, temp-file cleanup and a
// circuit breaker. A nil Host makes every upload fail with ErrUpload.
type Proxy struct {
	host    Host
	breaker *gobreaker.CircuitBreaker[Asset]
	maxSize int64
}

func NewProxy(host Host) *Proxy {
	settings := gobreaker.Settings{
		Name:        "media-host",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("media breaker state changed")
		},
	}
	return &Proxy{host: host, breaker: gobreaker.NewCircuitBreaker[Asset](settings), maxSize: maxUploadSize}
}

func (p *Proxy) Upload(ctx context.Context, r io.Reader) (Asset, error) {
	start := time.Now()
	asset, err := p.upload(ctx, r)
	metrics.RecordUpload(err == nil, time.Since(start))
	return asset, err
}

func (p *Proxy) upload(ctx context.Context, r io.Reader) (Asset, error) {
	if p.host == nil {
		return Asset{}, fmt.Errorf("%w: media host not configured", ErrUpload)
	}
	obj, err := Normalize(r)
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %v", ErrUpload, err)
	}
	asset, err := p.breaker.Execute(func() (Asset, error) {
		return p.host.Upload(ctx, obj)
	})
	if err != nil {
		return Asset{}, fmt.Errorf("%w: %v", ErrUpload, err)
	}
	return asset, nil
}

// UploadForm reads the multipart file under field and uploads it. Bodies
// larger than maxUploadSize fail with ErrTooBig. Spooled temp files are
// removed before returning.
func (p *Proxy) UploadForm(w http.ResponseWriter, r *http.Request, field string) (Asset, error) {
	r.Body = http.MaxBytesReader(w, r.Body, p.maxSize)
	if err := r.ParseMultipartForm(p.maxSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) || r.ContentLength > p.maxSize {
			return Asset{}, ErrTooBig
		}
		return Asset{}, ErrNoFile
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Msg("remove multipart temp files")
		}
	}()

	file, _, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return Asset{}, ErrNoFile
		}
		return Asset{}, fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer file.Close()

	return p.Upload(r.Context(), file)
}

// Delete is best-effort; the caller decides whether a failure matters.
func (p *Proxy) Delete(ctx context.Context, handle string) error {
	if p.host == nil {
		return fmt.Errorf("%w: media host not configured", ErrUpload)
	}
	_, err := p.breaker.Execute(func() (Asset, error) {
		return Asset{}, p.host.Delete(ctx, handle)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpload, err)
	}
	return nil
}
