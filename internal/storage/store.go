package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"
)

// Options configures a Store.
type Options struct {
	// Bucket is the remote client all operations go through.
	Bucket Bucket
	// BucketName and Zone identify the bucket; Host is the service
	// domain used for public URLs.
	BucketName string
	Zone       string
	Host       string
	// Location confines every key the store produces under this prefix.
	Location string
	// SecureURL selects https over http in generated URLs.
	SecureURL bool
}

// Store exposes file-style operations over one remote bucket. It holds
// no per-file state; handles returned by Open own all mutable state.
type Store struct {
	bucket   Bucket
	name     string
	zone     string
	host     string
	location string
	secure   bool
	log      *log.Entry
}

// New builds a Store and provisions its bucket. A failed provisioning
// probe fails construction rather than being swallowed; a missing
// bucket is created.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Bucket == nil {
		return nil, errors.New("storage: bucket client is required")
	}
	if opts.BucketName == "" {
		return nil, errors.New("storage: bucket name is required")
	}

	s := &Store{
		bucket:   opts.Bucket,
		name:     opts.BucketName,
		zone:     opts.Zone,
		host:     opts.Host,
		location: opts.Location,
		secure:   opts.SecureURL,
		log:      log.WithField("bucket", opts.BucketName),
	}
	if err := s.bucket.Ensure(ctx); err != nil {
		return nil, fmt.Errorf("provision bucket %s: %w", s.name, err)
	}
	s.log.WithField("location", s.location).Debug("store ready")
	return s, nil
}

// Open returns a File bound to name. No remote call happens until the
// handle is first read, sized, or flushed, but the name is normalized
// up front so traversal attempts fail here.
func (s *Store) Open(ctx context.Context, name string, mode Mode) (*File, error) {
	if _, err := NormalizeName(s.location, name); err != nil {
		return nil, err
	}
	return newFile(ctx, s, name, mode), nil
}

// Save writes content at name and returns the cleaned caller-facing
// name, not the internal key.
func (s *Store) Save(ctx context.Context, name string, content []byte) (string, error) {
	cleaned := CleanName(name)
	key, err := NormalizeName(s.location, cleaned)
	if err != nil {
		return "", err
	}
	if err := s.bucket.Put(ctx, key, content); err != nil {
		return "", fmt.Errorf("put object %q: %w", key, err)
	}
	s.log.WithField("key", key).WithField("bytes", len(content)).Debug("object saved")
	return cleaned, nil
}

func (s *Store) read(ctx context.Context, name string) ([]byte, error) {
	key, err := NormalizeName(s.location, name)
	if err != nil {
		return nil, err
	}
	data, err := s.bucket.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get object %q: %w", key, err)
	}
	return data, nil
}

// Delete removes name. Deleting an absent object is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	key, err := NormalizeName(s.location, name)
	if err != nil {
		return err
	}
	if err := s.bucket.Delete(ctx, key); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return fmt.Errorf("delete object %q: %w", key, err)
	}
	s.log.WithField("key", key).Debug("object deleted")
	return nil
}

// Exists reports whether name resolves to an object. A definitive
// not-found answers (false, nil); transport or auth failures surface as
// errors instead of masquerading as absence.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.stat(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Size returns the byte length of the object at name.
func (s *Store) Size(ctx context.Context, name string) (int64, error) {
	info, err := s.stat(ctx, name)
	if err != nil {
		return 0, err
	}
	return info.Size, nil
}

// ModifiedTime returns the object's last-modified timestamp from the
// remote metadata.
func (s *Store) ModifiedTime(ctx context.Context, name string) (time.Time, error) {
	info, err := s.stat(ctx, name)
	if err != nil {
		return time.Time{}, err
	}
	if info.LastModified.IsZero() {
		return time.Time{}, fmt.Errorf("object %q: no last-modified metadata", name)
	}
	return info.LastModified, nil
}

// Listdir returns the keys of every object sharing the normalized
// prefix, relative to the bucket root. The backend has no directory
// concept, so raw keys come back undeduplicated.
func (s *Store) Listdir(ctx context.Context, dir string) ([]string, error) {
	prefix, err := NormalizeName(s.location, dir)
	if err != nil {
		return nil, err
	}
	infos, err := s.bucket.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list objects %q: %w", prefix, err)
	}
	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		keys = append(keys, info.Key)
	}
	return keys, nil
}

// URL builds the public address of name. Pure string construction, no
// remote call and no existence check.
func (s *Store) URL(name string) (string, error) {
	key, err := NormalizeName(s.location, CleanName(name))
	if err != nil {
		return "", err
	}
	scheme := "http"
	if s.secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s.%s.%s/%s", scheme, s.name, s.zone, s.host, key), nil
}

func (s *Store) stat(ctx context.Context, name string) (ObjectInfo, error) {
	key, err := NormalizeName(s.location, CleanName(name))
	if err != nil {
		return ObjectInfo{}, err
	}
	info, err := s.bucket.Stat(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ObjectInfo{}, fmt.Errorf("object %q: %w", key, ErrNotFound)
		}
		return ObjectInfo{}, fmt.Errorf("stat object %q: %w", key, err)
	}
	return info, nil
}
