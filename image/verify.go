package image

import (
	"bytes"
	"context"
	"runtime"

	"github.com/multiformats/go-multihash"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wippyai/flashstring"
	"github.com/wippyai/flashstring/errors"
)

// Verify recomputes the digest of every entry that has one and returns the
// first mismatch. Entries are hashed concurrently, reading through the
// uncached backend.
func (img *Image) Verify(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, e := range img.entries {
		if e.Digest == nil {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return e.Verify()
		})
	}
	return g.Wait()
}

// Verify checks the entry data against its recorded digest. Entries without
// a digest always verify.
func (e Entry) Verify() error {
	if e.Digest == nil {
		return nil
	}
	want, err := multihash.Cast(e.Digest)
	if err != nil {
		return errors.New(errors.PhaseVerify, errors.KindInvalidData).
			Path(e.Name).
			Detail("malformed digest").
			Cause(err).
			Build()
	}
	dec, err := multihash.Decode(want)
	if err != nil {
		return errors.New(errors.PhaseVerify, errors.KindInvalidData).
			Path(e.Name).
			Detail("malformed digest").
			Cause(err).
			Build()
	}
	got, err := multihash.SumStream(flashstring.NewReader(e.Handle, true), dec.Code, dec.Length)
	if err != nil {
		return errors.New(errors.PhaseVerify, errors.KindUnsupported).
			Path(e.Name).
			Detail("hash %s", dec.Name).
			Cause(err).
			Build()
	}
	if !bytes.Equal(got, want) {
		Logger().Warn("digest mismatch",
			zap.String("entry", e.Name),
			zap.Uint32("addr", e.Addr))
		return errors.DigestMismatch(e.Name, want.B58String(), got.B58String())
	}
	return nil
}
