// Package bundle moves delegation records between stores as a deterministic
// TAR archive.
//
// Layout:
//
//	delegations/<host hex>   delegated node hex, newline terminated
//	index.json               optional, non-authoritative summary
package bundle

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"xdao.co/ensbridge/model"
	"xdao.co/ensbridge/storage"
)

// FormatVersion is the current bundle index schema version.
const FormatVersion = 1

const recordDir = "delegations/"

var epoch0 = time.Unix(0, 0).UTC()

// ExportOptions controls bundle export behavior.
type ExportOptions struct {
	// Labels is optional, non-authoritative metadata mapping names to host nodes.
	Labels map[string]model.Node
	// IncludeIndex controls whether index.json is included.
	IncludeIndex bool
}

// Export writes every record of src as a deterministic TAR bundle.
//
// Entry order is lexicographic by host and TAR headers are normalized, so
// equal record sets always produce equal bytes.
func Export(ctx context.Context, w io.Writer, src storage.Lister, opts ExportOptions) error {
	if src == nil {
		return fmt.Errorf("bundle: nil store")
	}
	records, err := src.List(ctx)
	if err != nil {
		return err
	}
	return WriteRecords(w, records, opts)
}

// WriteRecords writes records as a bundle. Duplicate hosts are rejected.
func WriteRecords(w io.Writer, records []storage.Record, opts ExportOptions) error {
	sorted := append([]storage.Record(nil), records...)
	storage.SortRecords(sorted)

	tw := tar.NewWriter(w)
	entries := make([]indexRecord, 0, len(sorted))
	for i, r := range sorted {
		if i > 0 && sorted[i-1].Host == r.Host {
			_ = tw.Close()
			return fmt.Errorf("bundle: duplicate host %s", r.Host)
		}
		if err := writeFile(tw, recordDir+hexOf(r.Host), []byte(r.Delegated.Hex()+"\n")); err != nil {
			_ = tw.Close()
			return err
		}
		entries = append(entries, indexRecord{Host: r.Host.Hex(), Delegated: r.Delegated.Hex()})
	}

	if opts.IncludeIndex {
		idx := indexJSON{Version: FormatVersion, Records: entries}
		if len(opts.Labels) > 0 {
			names := make([]string, 0, len(opts.Labels))
			for k := range opts.Labels {
				names = append(names, k)
			}
			sort.Strings(names)

			labels := make([]indexLabel, 0, len(names))
			for _, k := range names {
				if k == "" {
					_ = tw.Close()
					return fmt.Errorf("bundle: empty label key")
				}
				labels = append(labels, indexLabel{Name: k, Host: opts.Labels[k].Hex()})
			}
			idx.Labels = labels
		}

		b, err := marshalCanonicalIndexJSON(idx)
		if err != nil {
			_ = tw.Close()
			return err
		}
		if err := writeFile(tw, "index.json", b); err != nil {
			_ = tw.Close()
			return err
		}
	}

	return tw.Close()
}

// ImportOptions controls bundle import behavior.
type ImportOptions struct {
	// IgnoreUnknown controls whether unknown TAR entries are ignored.
	//
	// Default (false) is fail-closed: unknown entries cause Import to return an error.
	IgnoreUnknown bool
}

// Import reads a bundle from r and writes every record into dst.
// It returns the number of records imported.
func Import(ctx context.Context, r io.Reader, dst storage.Store, opts ImportOptions) (int, error) {
	if dst == nil {
		return 0, fmt.Errorf("bundle: nil store")
	}
	records, err := ReadRecords(r, opts)
	if err != nil {
		return 0, err
	}
	for i, rec := range records {
		if err := dst.Put(ctx, rec.Host, rec.Delegated); err != nil {
			return i, err
		}
	}
	return len(records), nil
}

// ReadRecords parses a bundle without writing anything. The whole bundle is
// validated before any record is returned.
func ReadRecords(r io.Reader, opts ImportOptions) ([]storage.Record, error) {
	tr := tar.NewReader(r)
	seen := map[model.Node]struct{}{}
	var out []storage.Record

	for {
		h, err := tr.Next()
		if err == io.EOF {
			storage.SortRecords(out)
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		name := cleanTarPath(h.Name)
		if name == "" {
			return nil, fmt.Errorf("bundle: invalid entry path: %q", h.Name)
		}

		if h.Typeflag != tar.TypeReg {
			if opts.IgnoreUnknown {
				continue
			}
			return nil, fmt.Errorf("bundle: unexpected tar entry type: %v (%s)", h.Typeflag, name)
		}

		// Non-authoritative metadata.
		if name == "index.json" {
			_, _ = io.Copy(io.Discard, tr)
			continue
		}

		if !strings.HasPrefix(name, recordDir) {
			if opts.IgnoreUnknown {
				_, _ = io.Copy(io.Discard, tr)
				continue
			}
			return nil, fmt.Errorf("bundle: unknown entry: %s", name)
		}

		host, err := model.ParseNode(strings.TrimPrefix(name, recordDir))
		if err != nil {
			return nil, fmt.Errorf("%w: entry %s: %v", storage.ErrCorrupt, name, err)
		}
		// A record is one hex node plus a newline; anything larger is not ours.
		payload, err := io.ReadAll(io.LimitReader(tr, 128))
		if err != nil {
			return nil, err
		}
		delegated, err := model.ParseNode(strings.TrimSpace(string(payload)))
		if err != nil {
			return nil, fmt.Errorf("%w: entry %s: %v", storage.ErrCorrupt, name, err)
		}

		if _, ok := seen[host]; ok {
			return nil, fmt.Errorf("bundle: duplicate record entry: %s", host)
		}
		seen[host] = struct{}{}
		out = append(out, storage.Record{Host: host, Delegated: delegated})
	}
}

type indexJSON struct {
	Version int           `json:"version"`
	Records []indexRecord `json:"records"`
	Labels  []indexLabel  `json:"labels,omitempty"`
}

type indexRecord struct {
	Host      string `json:"host"`
	Delegated string `json:"delegated"`
}

type indexLabel struct {
	Name string `json:"name"`
	Host string `json:"host"`
}

func marshalCanonicalIndexJSON(idx indexJSON) ([]byte, error) {
	// indexJSON is composed only of structs + slices; encoding/json will be deterministic.
	b, err := json.Marshal(idx)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func hexOf(n model.Node) string { return strings.TrimPrefix(n.Hex(), "0x") }

func writeFile(tw *tar.Writer, name string, content []byte) error {
	hdr := &tar.Header{
		Name:     name,
		Mode:     0o644,
		Size:     int64(len(content)),
		ModTime:  epoch0,
		Typeflag: tar.TypeReg,
		Format:   tar.FormatUSTAR,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	_, err := io.Copy(tw, bytes.NewReader(content))
	return err
}

func cleanTarPath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return ""
	}

	parts := strings.Split(name, "/")
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return ""
		}
	}
	return strings.Join(parts, "/")
}
