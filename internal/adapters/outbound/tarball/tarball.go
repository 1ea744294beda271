// Package tarball writes reproducible, compressed tar archives and unpacks
// source archives.
package tarball

import (
	"archive/tar"
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// Compression is the codec applied to the tar stream.
type Compression string

const (
	None Compression = "none"
	Gzip Compression = "gzip"
	Zstd Compression = "zstd"
	XZ   Compression = "xz"
)

var suffixes = []struct {
	suffix string
	c      Compression
}{
	{".tar.xz", XZ},
	{".txz", XZ},
	{".tar.gz", Gzip},
	{".tgz", Gzip},
	{".tar.zst", Zstd},
	{".tzst", Zstd},
	{".tar", None},
}

// CompressionFor picks the codec from a file name.
func CompressionFor(name string) (Compression, error) {
	lower := strings.ToLower(name)
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s.suffix) {
			return s.c, nil
		}
	}
	return "", fmt.Errorf("%s: unsupported archive type (use .tar.xz, .tar.gz, .tar.zst or .tar)", name)
}

// Options controls Create.
type Options struct {
	// Prefix is prepended to every entry name, e.g. "project-1.0".
	Prefix string
	// ModTime is stamped on every entry.
	ModTime time.Time
}

type entry struct {
	rel  string
	info fs.FileInfo
}

// Create archives paths (relative to root) into out. Entries are sorted,
// owned by uid/gid 0 and carry opts.ModTime, so identical trees produce
// identical archives. out is written atomically.
func Create(out, root string, paths []string, opts Options) (err error) {
	comp, err := CompressionFor(out)
	if err != nil {
		return err
	}

	entries, err := collect(root, paths)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(out), "."+filepath.Base(out)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	cw, err := compressor(tmp, comp)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(cw)
	for _, e := range entries {
		if err := writeEntry(tw, root, e, opts); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("finishing tar stream: %w", err)
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("finishing %s stream: %w", comp, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), out)
}

func collect(root string, paths []string) ([]entry, error) {
	var entries []entry
	for _, p := range paths {
		start := filepath.Join(root, filepath.FromSlash(p))
		err := filepath.WalkDir(start, func(full string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(root, full)
			if err != nil {
				return err
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			entries = append(entries, entry{rel: filepath.ToSlash(rel), info: info})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("collecting %s: %w", p, err)
		}
	}
	slices.SortFunc(entries, func(a, b entry) int { return strings.Compare(a.rel, b.rel) })
	return slices.CompactFunc(entries, func(a, b entry) bool { return a.rel == b.rel }), nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func compressor(w io.Writer, c Compression) (io.WriteCloser, error) {
	switch c {
	case XZ:
		return xz.NewWriter(w)
	case Gzip:
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case Zstd:
		return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression), zstd.WithEncoderConcurrency(1))
	case None:
		return nopCloser{w}, nil
	}
	return nil, fmt.Errorf("unknown compression %q", c)
}

func writeEntry(tw *tar.Writer, root string, e entry, opts Options) error {
	name := e.rel
	if opts.Prefix != "" {
		name = path.Join(opts.Prefix, name)
	}
	mode := e.info.Mode()

	hdr := &tar.Header{
		Name:    name,
		ModTime: opts.ModTime.UTC(),
		Format:  tar.FormatPAX,
	}
	switch {
	case mode.IsDir():
		hdr.Typeflag = tar.TypeDir
		hdr.Name += "/"
		hdr.Mode = 0o755
	case mode&fs.ModeSymlink != 0:
		target, err := os.Readlink(filepath.Join(root, filepath.FromSlash(e.rel)))
		if err != nil {
			return err
		}
		hdr.Typeflag = tar.TypeSymlink
		hdr.Linkname = target
		hdr.Mode = 0o777
	case mode.IsRegular():
		hdr.Typeflag = tar.TypeReg
		hdr.Size = e.info.Size()
		hdr.Mode = 0o644
		if mode&0o111 != 0 {
			hdr.Mode = 0o755
		}
	default:
		return fmt.Errorf("%s: unsupported file type %s", e.rel, mode.Type())
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("writing header for %s: %w", e.rel, err)
	}
	if hdr.Typeflag != tar.TypeReg {
		return nil
	}
	f, err := os.Open(filepath.Join(root, filepath.FromSlash(e.rel)))
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("writing %s: %w", e.rel, err)
	}
	return nil
}

// Extract unpacks a tar (optionally compressed) or zip archive into dest.
// Entries escaping dest are rejected.
func Extract(src, dest string) error {
	if strings.HasSuffix(strings.ToLower(src), ".zip") {
		return extractZip(src, dest)
	}
	comp, err := CompressionFor(src)
	if err != nil {
		return err
	}

	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	r, closer, err := decompressor(f, comp)
	if err != nil {
		return err
	}
	defer closer()

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading tar entry: %w", err)
		}
		target, err := safeJoin(dest, hdr.Name)
		if err != nil {
			return err
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, fs.FileMode(hdr.Mode)&0o777); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		}
	}
}

func decompressor(r io.Reader, c Compression) (io.Reader, func(), error) {
	switch c {
	case XZ:
		xr, err := xz.NewReader(r)
		return xr, func() {}, err
	case Gzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("creating gzip reader: %w", err)
		}
		return gr, func() { _ = gr.Close() }, nil
	case Zstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		return zr, zr.Close, nil
	}
	return r, func() {}, nil
}

func extractZip(src, dest string) error {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer zr.Close()

	for _, zf := range zr.File {
		target, err := safeJoin(dest, zf.Name)
		if err != nil {
			return err
		}
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return err
		}
		err = writeFile(target, rc, zf.Mode()&0o777)
		rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func safeJoin(dest, name string) (string, error) {
	clean := path.Clean(strings.TrimPrefix(filepath.ToSlash(name), "./"))
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("archive entry %q escapes the destination", name)
	}
	return filepath.Join(dest, filepath.FromSlash(clean)), nil
}

func writeFile(target string, r io.Reader, mode fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	if mode == 0 {
		mode = 0o644
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("extracting %s: %w", target, err)
	}
	return f.Close()
}

// Archiver implements domain.Archiver.
type Archiver struct{}

func New() *Archiver {
	return &Archiver{}
}

func (Archiver) Create(out, root string, paths []string, prefix string, mtime time.Time) error {
	return Create(out, root, paths, Options{Prefix: prefix, ModTime: mtime})
}

func (Archiver) Extract(src, dest string) error {
	return Extract(src, dest)
}
