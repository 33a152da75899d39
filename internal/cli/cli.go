package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"bucketfs/internal/config"
	"bucketfs/internal/state"
	"bucketfs/internal/storage"
	miniobucket "bucketfs/internal/storage/minio"
)

func Run(args []string) error {
	fs := flag.NewFlagSet("bucketfs", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	configPath, err := state.ConfigPath()
	if err != nil {
		return err
	}
	fs.StringVar(&configPath, "config", configPath, "path to config file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) == 0 {
		return usageError()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()
	store, err := storeFromConfig(ctx, cfg)
	if err != nil {
		return err
	}

	switch rest[0] {
	case "put":
		if len(rest) != 3 {
			return errors.New("usage: bucketfs put <name> <file|->")
		}
		return putObject(ctx, store, rest[1], rest[2])
	case "cat":
		if len(rest) != 2 {
			return errors.New("usage: bucketfs cat <name>")
		}
		return catObject(ctx, store, rest[1])
	case "ls":
		prefix := ""
		if len(rest) > 1 {
			prefix = rest[1]
		}
		return listObjects(ctx, store, prefix)
	case "rm":
		if len(rest) != 2 {
			return errors.New("usage: bucketfs rm <name>")
		}
		return store.Delete(ctx, rest[1])
	case "stat":
		if len(rest) != 2 {
			return errors.New("usage: bucketfs stat <name>")
		}
		return statObject(ctx, store, rest[1])
	case "url":
		if len(rest) != 2 {
			return errors.New("usage: bucketfs url <name>")
		}
		u, err := store.URL(rest[1])
		if err != nil {
			return err
		}
		fmt.Println(u)
		return nil
	default:
		return usageError()
	}
}

func usageError() error {
	return errors.New("usage: bucketfs [-config path] put <name> <file|-> | cat <name> | ls [prefix] | rm <name> | stat <name> | url <name>")
}

func storeFromConfig(ctx context.Context, cfg *config.Config) (*storage.Store, error) {
	var (
		bucket storage.Bucket
		err    error
	)
	switch cfg.Backend {
	case "s3":
		bucket, err = storage.NewS3Bucket(ctx, cfg)
	case "minio":
		bucket, err = miniobucket.NewFromConfig(cfg)
	case "memory":
		bucket = storage.NewMemoryBucket()
	default:
		err = fmt.Errorf("unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.Backend, err)
	}

	store, err := storage.New(ctx, storage.Options{
		Bucket:     bucket,
		BucketName: cfg.Bucket,
		Zone:       cfg.Zone,
		Host:       cfg.Host,
		Location:   cfg.Location,
		SecureURL:  cfg.SecureURL,
	})
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	return store, nil
}

func putObject(ctx context.Context, store *storage.Store, name, source string) error {
	var (
		data []byte
		err  error
	)
	if source == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(source)
	}
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	f, err := store.Open(ctx, name, storage.ModeWrite|storage.ModeBinary)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("uploaded %s (%d bytes)\n", name, len(data))
	return nil
}

func catObject(ctx context.Context, store *storage.Store, name string) error {
	f, err := store.Open(ctx, name, storage.ModeRead|storage.ModeBinary)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := f.ReadAll()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func listObjects(ctx context.Context, store *storage.Store, prefix string) error {
	keys, err := store.Listdir(ctx, prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		fmt.Println(key)
	}
	return nil
}

func statObject(ctx context.Context, store *storage.Store, name string) error {
	exists, err := store.Exists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("object %q: %w", name, storage.ErrNotFound)
	}

	size, err := store.Size(ctx, name)
	if err != nil {
		return err
	}
	modified, err := store.ModifiedTime(ctx, name)
	if err != nil {
		return err
	}
	fmt.Printf("name=%s size=%s modified=%s\n", name, strconv.FormatInt(size, 10), modified.UTC().Format("2006-01-02 15:04:05Z07:00"))
	return nil
}
