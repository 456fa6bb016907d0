package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"
)

// Derivatives produces the large and small downscaled JPEGs from the
// normalized buffer. Both use a fit-inside policy: the longest side is capped,
// aspect ratio is preserved, and images already within the cap are left at
// their own dimensions rather than upscaled. The two derivatives have no data
// dependency on each other and are generated concurrently; nothing touches
// disk here, so a failure leaves no partial derivative behind.
func Derivatives(normalized []byte, largeMax, smallMax, quality int) (large, small []byte, err error) {

	src, err := imaging.Decode(bytes.NewReader(normalized))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: decode normalized: %v", ErrFormat, err)
	}

	var (
		wg    sync.WaitGroup
		errCh = make(chan error, 2)
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		b, derr := fitEncode(src, largeMax, quality)
		if derr != nil {
			errCh <- fmt.Errorf("large derivative: %w", derr)
			return
		}
		large = b
	}()
	go func() {
		defer wg.Done()
		b, derr := fitEncode(src, smallMax, quality)
		if derr != nil {
			errCh <- fmt.Errorf("small derivative: %w", derr)
			return
		}
		small = b
	}()

	wg.Wait()
	close(errCh)

	if len(errCh) > 0 {
		errs := make([]error, 0, len(errCh))
		for e := range errCh {
			errs = append(errs, e)
		}
		return nil, nil, errors.Join(errs...)
	}

	return large, small, nil
}

// fitEncode scales src down to fit a max x max box (never up) and encodes it
// as a reduced-quality JPEG.
func fitEncode(src image.Image, max, quality int) ([]byte, error) {
	resized := imaging.Fit(src, max, max, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("%w: jpeg encode: %v", ErrFormat, err)
	}
	return buf.Bytes(), nil
}
