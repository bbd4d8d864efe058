package localfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"xdao.co/ensbridge/model"
	"xdao.co/ensbridge/storage"
)

// Store is a local filesystem-backed delegation store.
//
// Each host node is one small file holding the delegated node in hex.
// Writes go to a temporary file that is renamed over the record, so readers
// observe either the old or the new record, never a partial one.
type Store struct {
	root string
}

var (
	_ storage.Store  = (*Store)(nil)
	_ storage.Lister = (*Store)(nil)
)

// New constructs a filesystem store rooted at root. The directory will be created if needed.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, errors.New("localfs: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{root: root}, nil
}

func (s *Store) Put(ctx context.Context, host, delegated model.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := s.pathFor(host)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	f, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.WriteString(delegated.Hex() + "\n"); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (s *Store) Get(ctx context.Context, host model.Node) (model.Node, error) {
	if err := ctx.Err(); err != nil {
		return model.ZeroNode, err
	}
	b, err := os.ReadFile(s.pathFor(host))
	if err != nil {
		if os.IsNotExist(err) {
			return model.ZeroNode, storage.ErrNotFound
		}
		return model.ZeroNode, err
	}
	d, err := model.ParseNode(strings.TrimSpace(string(b)))
	if err != nil {
		return model.ZeroNode, fmt.Errorf("%w: %v", storage.ErrCorrupt, err)
	}
	return d, nil
}

// List walks the shard directories. Temporary files and names that are not
// node hex are skipped.
func (s *Store) List(ctx context.Context) ([]storage.Record, error) {
	shards, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	var out []storage.Record
	for _, shard := range shards {
		if !shard.IsDir() || len(shard.Name()) != 2 {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(s.root, shard.Name()))
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			host, err := model.ParseNode(e.Name())
			if err != nil || e.IsDir() {
				continue
			}
			d, err := s.Get(ctx, host)
			if storage.IsNotFound(err) {
				continue
			}
			if err != nil {
				return nil, err
			}
			out = append(out, storage.Record{Host: host, Delegated: d})
		}
	}
	storage.SortRecords(out)
	return out, nil
}

func (s *Store) pathFor(host model.Node) string {
	h := strings.TrimPrefix(host.Hex(), "0x")
	return filepath.Join(s.root, h[:2], h)
}
