package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// ErrInvalidLocationURI indicates a trail backend URI that could not be
// parsed.
var ErrInvalidLocationURI = errors.New("invalid location URI")

// TrailFactory creates trail backends from URI strings and manages
// multi-backend configurations for redundant audit persistence.
type TrailFactory struct {
	log *slog.Logger
}

// NewTrailFactory creates a new factory instance.
func NewTrailFactory(logger *slog.Logger) *TrailFactory {
	return &TrailFactory{log: logger}
}

// BackendFor creates a trail backend from a location URI.
// The URI format should be [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - file:// - Local filesystem, JSON Lines append-only trail
//   - s3:// - Amazon S3 or compatible object storage, one object per event
//
// Returns an error if the URI is invalid or the scheme is unsupported.
func (sf *TrailFactory) BackendFor(locationURI string) (TrailBackend, error) {
	u, err := url.Parse(locationURI)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "s3":
		return sf.createS3Backend(u)
	case "file":
		return sf.createFileBackend(u)
	default:
		return nil, fmt.Errorf("unsupported backend scheme: %s", u.Scheme)
	}
}

// CreateMultiBackend creates a multi-trail backend from a list of location
// URIs. Invalid URIs are skipped with a warning; at least one backend must
// be created.
func (sf *TrailFactory) CreateMultiBackend(locationURIs []string) (TrailBackend, error) {
	backends := make([]TrailBackend, 0, len(locationURIs))

	for _, uri := range locationURIs {
		backend, err := sf.BackendFor(uri)
		if err != nil {
			sf.log.Warn("Failed to create trail backend",
				"err", err,
				slog.String("locationURI", uri))
			continue
		}
		backends = append(backends, backend)
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("no valid trail backends created")
	}

	return NewMultiTrailBackend(backends, sf.log), nil
}

// createS3Backend creates an S3 or S3-compatible trail backend.
// URI format: s3://[ACCESS_KEY:SECRET_KEY@]bucket-name/path/?region=us-west-2&endpoint=custom.s3.com
func (sf *TrailFactory) createS3Backend(u *url.URL) (TrailBackend, error) {
	sf.log.Debug("Creating S3 backend", slog.String("uri", u.Redacted()))

	bucketName := u.Host
	prefix := strings.TrimPrefix(u.Path, "/")

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}
	endpoint := query.Get("endpoint")

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
		sf.log.Debug("Using embedded credentials for write access")
	} else {
		sf.log.Debug("No credentials provided, S3 bucket assumed to be public, write operations may fail")
	}

	return NewS3Backend(bucketName, prefix, region, endpoint, accessKey, secretKey, sf.log)
}

// createFileBackend creates a file system trail backend.
// URI format: file:///absolute/path/ or file://./relative/path/
func (sf *TrailFactory) createFileBackend(u *url.URL) (TrailBackend, error) {
	sf.log.Debug("Creating file backend", slog.String("uri", u.String()))

	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("empty path in file URI: %s", u.String())
	}

	return NewFileBackend(path, sf.log)
}
