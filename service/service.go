// Package service composes the HTTP client, manifest, downloader, and
// chunkreader packages behind one façade representing a single build.
package service

import (
	"context"
	"sync"

	"github.com/SirWaddles/wickdl/auth"
	"github.com/SirWaddles/wickdl/chunkreader"
	"github.com/SirWaddles/wickdl/downloader"
	"github.com/SirWaddles/wickdl/httpclient"
	"github.com/SirWaddles/wickdl/logger"
	"github.com/SirWaddles/wickdl/manifest"
	"github.com/SirWaddles/wickdl/wickerr"
)

// Service is a handle on one build: its descriptor, manifest, and the
// means to list, download, or stream its files.
type Service struct {
	client   *httpclient.Client
	desc     *manifest.ApplicationDescriptor
	manifest *manifest.BuildManifest

	sharedMu      sync.Mutex
	sharedReaders map[string]*chunkreader.Reader
}

// New fetches the application descriptor and build manifest for descriptorURL,
// authenticating with an OAuth client-credentials token obtained from
// identityURL.
func New(ctx context.Context, descriptorURL, identityURL, clientID, clientSecret string, maxWorkers int) (*Service, error) {
	client := httpclient.New(maxWorkers)

	token, err := auth.FetchToken(ctx, client, identityURL, auth.BasicAuthHeader(clientID, clientSecret))
	if err != nil {
		return nil, err
	}

	desc, err := manifest.FetchApplicationDescriptor(ctx, client, descriptorURL, token)
	if err != nil {
		return nil, err
	}

	buildManifest, err := manifest.FetchBuildManifest(ctx, client, desc)
	if err != nil {
		return nil, err
	}

	return FromManifests(client, desc, buildManifest), nil
}

// FromManifests constructs a Service from already-fetched manifests,
// letting callers supply cached or offline-loaded data instead of issuing
// fresh HTTP requests.
func FromManifests(client *httpclient.Client, desc *manifest.ApplicationDescriptor, buildManifest *manifest.BuildManifest) *Service {
	return &Service{
		client:        client,
		desc:          desc,
		manifest:      buildManifest,
		sharedReaders: make(map[string]*chunkreader.Reader),
	}
}

// Distributions returns the round-robin CDN base URL list for this build's
// manifest item.
func (s *Service) Distributions() ([]string, error) {
	item, err := s.desc.Manifest()
	if err != nil {
		return nil, err
	}
	return item.Distributions(), nil
}

// ListCandidates returns the manifest's files whose name satisfies predicate.
func (s *Service) ListCandidates(predicate func(string) bool) []manifest.FileEntry {
	return s.manifest.FilterFiles(predicate)
}

func (s *Service) findFile(name string) (manifest.FileEntry, error) {
	for _, f := range s.manifest.Files {
		if f.Filename == name {
			return f, nil
		}
	}
	return manifest.FileEntry{}, wickerr.New(wickerr.KindNotFound, "file %q not found in manifest", name)
}

// Download fetches the named file's chunks in parallel and writes it to
// targetPath.
func (s *Service) Download(ctx context.Context, name, targetPath string, opts downloader.Options) error {
	file, err := s.findFile(name)
	if err != nil {
		return err
	}

	dists, err := s.Distributions()
	if err != nil {
		return err
	}

	plan, totalSize, err := downloader.Plan(s.manifest, file, dists)
	if err != nil {
		return err
	}

	logger.Info("downloading file", "name", name, "chunks", len(plan), "size", totalSize)
	return downloader.Download(ctx, s.client, plan, totalSize, targetPath, opts)
}

// Open returns an owned, unshared random-access reader over the named file.
func (s *Service) Open(ctx context.Context, name string) (*chunkreader.Reader, error) {
	file, err := s.findFile(name)
	if err != nil {
		return nil, err
	}

	dists, err := s.Distributions()
	if err != nil {
		return nil, err
	}

	plan, err := chunkreader.BuildPlan(s.manifest, file, dists)
	if err != nil {
		return nil, err
	}

	return chunkreader.New(ctx, s.client, plan), nil
}

// sharedReader wraps a chunkreader.Reader held by the façade, serializing
// every Read/Seek/Close against the Service's mutex so concurrent callers
// of OpenShared for the same (or different) files never race on the
// resident-chunk state machine.
type sharedReader struct {
	mu *sync.Mutex
	r  *chunkreader.Reader
}

func (s *sharedReader) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Read(p)
}

func (s *sharedReader) Seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Seek(offset, whence)
}

func (s *sharedReader) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Close()
}

// OpenShared returns a reader for name shared across calls: the first call
// opens it; every call, including the first, hands back the reader reset
// to the start of the file. All access is serialized by the façade's
// mutex, matching the distilled spec's note that a façade-held ChunkReader
// needs mutual exclusion.
func (s *Service) OpenShared(ctx context.Context, name string) (*sharedReader, error) {
	s.sharedMu.Lock()
	defer s.sharedMu.Unlock()

	r, ok := s.sharedReaders[name]
	if !ok {
		var err error
		r, err = s.Open(ctx, name)
		if err != nil {
			return nil, err
		}
	} else {
		r = r.Reset()
	}
	s.sharedReaders[name] = r

	return &sharedReader{mu: &s.sharedMu, r: r}, nil
}
