package hasher

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/assetcp/assetcp/pkg/utils/cp"
)

// Pair is one copied file to check: the source it was read from and the
// destination it was written to.
type Pair struct {
	Source      string
	Destination string
}

// HashFile computes the SHA-256 digest of a single file and reports how many
// bytes were hashed.
func HashFile(ctx context.Context, path string, buf []byte, limiter *rate.Limiter) ([]byte, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "failed to open %s for hashing", path)
	}
	defer f.Close()

	hash := sha256.New()

	hashed, err := cp.Copy(ctx, hash, f, cp.WithBuffer(buf), cp.WithRateLimiter(limiter))
	if err != nil {
		return nil, hashed, errors.Wrapf(err, "failed to hash %s", path)
	}

	return hash.Sum(nil), hashed, nil
}

// Verifier compares copied files against their sources by digest.
type Verifier struct {
	conf   Config
	logger zerolog.Logger

	// Stats
	filesVerified atomic.Int64
	filesFailed   atomic.Int64
	bytesHashed   atomic.Int64
}

type Stats struct {
	FilesVerified int64
	FilesFailed   int64
	BytesHashed   int64
}

func New(conf Config, logger zerolog.Logger) *Verifier {
	if err := conf.Validate(); err != nil {
		panic(err)
	}

	return &Verifier{
		conf:   conf,
		logger: logger.With().Str("component", "verifier").Logger(),
	}
}

func (v *Verifier) Stats() Stats {
	return Stats{
		FilesVerified: v.filesVerified.Load(),
		FilesFailed:   v.filesFailed.Load(),
		BytesHashed:   v.bytesHashed.Load(),
	}
}

// Verify hashes every pair's source and destination and compares the
// digests. Pairs are checked concurrently; each mismatch or read failure is
// logged and counted rather than aborting the rest, and an aggregate error
// is returned if any pair failed.
func (v *Verifier) Verify(ctx context.Context, pairs []Pair) error {
	var limiter *rate.Limiter
	if v.conf.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(v.conf.RateLimit), v.conf.BufferSize*v.conf.MaxConcurrentFiles)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(v.conf.MaxConcurrentFiles)

	for _, pair := range pairs {
		pair := pair
		eg.Go(func() error {
			v.verifyPair(ctx, pair, limiter)
			return nil // Failures are counted, not returned, so every pair gets checked.
		})
	}

	if err := eg.Wait(); err != nil {
		return errors.Wrap(err, "failed to verify files")
	}

	if failed := v.filesFailed.Load(); failed > 0 {
		return errors.Errorf("%d of %d files failed verification, see logs for details", failed, len(pairs))
	}

	return nil
}

func (v *Verifier) verifyPair(ctx context.Context, pair Pair, limiter *rate.Limiter) {
	buf := make([]byte, v.conf.BufferSize)

	srcHash, hashed, err := HashFile(ctx, pair.Source, buf, limiter)
	v.bytesHashed.Add(hashed)
	if err != nil {
		v.filesFailed.Add(1)
		v.logger.Error().Err(err).Str("source", pair.Source).Msg("Failed to hash source file")
		return
	}

	dstHash, hashed, err := HashFile(ctx, pair.Destination, buf, limiter)
	v.bytesHashed.Add(hashed)
	if err != nil {
		v.filesFailed.Add(1)
		v.logger.Error().Err(err).Str("destination", pair.Destination).Msg("Failed to hash destination file")
		return
	}

	if !bytes.Equal(srcHash, dstHash) {
		v.filesFailed.Add(1)
		v.logger.Error().
			Str("source", pair.Source).
			Str("destination", pair.Destination).
			Str("sourceHash", hex.EncodeToString(srcHash)).
			Str("destinationHash", hex.EncodeToString(dstHash)).
			Msg("Source and destination do not match")
		return
	}

	v.filesVerified.Add(1)
	v.logger.Info().Str("source", pair.Source).Str("destination", pair.Destination).Msg("Verified file")
}
