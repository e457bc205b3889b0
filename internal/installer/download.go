package installer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"
	"github.com/ulikunitz/xz"

	"github.com/lone-outpost-oss/multimoon/internal/checksum"
	"github.com/lone-outpost-oss/multimoon/internal/config"
	"github.com/lone-outpost-oss/multimoon/internal/registry"
)

// Artifact is a downloaded and verified file held in memory.
type Artifact struct {
	File registry.File
	Data []byte
}

// Downloader fetches toolchain artifacts. Requests carry no timeout of
// their own and are not retried; the caller's context bounds them.
type Downloader struct {
	client *http.Client
	logger config.Logger
}

// NewDownloader creates a downloader. A nil client means http.DefaultClient.
func NewDownloader(client *http.Client, logger config.Logger) *Downloader {
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{
		client: client,
		logger: config.LoggerOrNoop(logger),
	}
}

type indexedArtifact struct {
	index    int
	artifact Artifact
}

// FetchBinaries downloads every executable of tc concurrently, xz-decodes
// each one and verifies the decoded bytes. The first failure is returned
// once all downloads have finished; on failure no artifact is returned.
// Results follow the order of tc.Bin.
func (d *Downloader) FetchBinaries(ctx context.Context, reg *registry.Registry, tc registry.Toolchain, archTag string) ([]Artifact, error) {
	total := len(tc.Bin)
	var started, finished atomic.Int32

	urls := make([]string, total)
	for i, bin := range tc.Bin {
		u, err := reg.BinaryURL(tc, archTag, bin)
		if err != nil {
			return nil, err
		}
		urls[i] = u.String()
	}

	p := pool.NewWithResults[indexedArtifact]().WithErrors().WithFirstError()
	for i, bin := range tc.Bin {
		u := urls[i]
		p.Go(func() (indexedArtifact, error) {
			d.logger.Info(fmt.Sprintf("downloading [bin %d / %d]", started.Add(1), total), "url", u)

			start := time.Now()
			compressed, err := registry.Get(ctx, d.client, u)
			if err != nil {
				return indexedArtifact{}, fmt.Errorf("download %s: %w", bin.Filename, err)
			}
			elapsed := time.Since(start)

			data, err := decompressXZ(compressed)
			if err != nil {
				return indexedArtifact{}, fmt.Errorf("decompress %s: %w", bin.Filename, err)
			}
			if err := checksum.Verify(bin.Filename, data, bin.Checksum); err != nil {
				return indexedArtifact{}, err
			}

			d.logger.Info(fmt.Sprintf("downloaded [bin %d / %d]", finished.Add(1), total),
				"file", bin.Filename, "speed", formatSpeed(len(compressed), elapsed))
			return indexedArtifact{index: i, artifact: Artifact{File: bin, Data: data}}, nil
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	sort.Slice(results, func(a, b int) bool { return results[a].index < results[b].index })
	artifacts := make([]Artifact, len(results))
	for i, r := range results {
		artifacts[i] = r.artifact
	}
	return artifacts, nil
}

// FetchBundle downloads the library bundle core[0] of tc and verifies it.
// The bundle is served uncompressed and its fingerprint covers the raw
// bytes.
func (d *Downloader) FetchBundle(ctx context.Context, reg *registry.Registry, tc registry.Toolchain) (Artifact, error) {
	bundle, err := tc.Bundle()
	if err != nil {
		return Artifact{}, err
	}
	u, err := reg.BundleURL(tc, bundle)
	if err != nil {
		return Artifact{}, err
	}

	d.logger.Info("downloading [lib 1 / 1]", "url", u.String())
	start := time.Now()
	data, err := registry.Get(ctx, d.client, u.String())
	if err != nil {
		return Artifact{}, fmt.Errorf("download %s: %w", bundle.Filename, err)
	}
	elapsed := time.Since(start)

	if err := checksum.Verify(bundle.Filename, data, bundle.Checksum); err != nil {
		return Artifact{}, err
	}

	d.logger.Info("downloaded [lib 1 / 1]", "file", bundle.Filename, "speed", formatSpeed(len(data), elapsed))
	return Artifact{File: bundle, Data: data}, nil
}

func decompressXZ(compressed []byte) ([]byte, error) {
	r, err := xz.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

func formatSpeed(n int, elapsed time.Duration) string {
	secs := elapsed.Seconds()
	if secs <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.2f KiB/s", float64(n)/secs/1024)
}
