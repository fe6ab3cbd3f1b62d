package altfs

import (
	"context"
	"os"
	"syscall"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"github.com/dendrascience/arcalts/alts"
	"github.com/dendrascience/arcalts/arc"
	"github.com/dendrascience/arcalts/internal/logging"
	"github.com/dendrascience/arcalts/internal/metrics"
	"github.com/dendrascience/arcalts/loader"
	"github.com/dendrascience/arcalts/pathhash"
	"github.com/dendrascience/arcalts/search"
	"go.uber.org/zap"
)

// FS implements the read-only arcalts FUSE filesystem
type FS struct {
	mgr     *alts.Manager
	loader  *loader.Loader
	mounted time.Time
	log     *zap.Logger
}

var (
	_ fs.FS                 = (*FS)(nil)
	_ fs.Node               = (*Dir)(nil)
	_ fs.NodeStringLookuper = (*Dir)(nil)
	_ fs.HandleReadDirAller = (*Dir)(nil)
	_ fs.Node               = (*File)(nil)
	_ fs.HandleReadAller    = (*File)(nil)
)

// NewFS creates a filesystem over the manager's index. Directory listings go
// through ld so remapped folders show the active alt's files.
func NewFS(mgr *alts.Manager, ld *loader.Loader, log *zap.Logger) *FS {
	return &FS{
		mgr:     mgr,
		loader:  ld,
		mounted: time.Now(),
		log:     logging.Or(log),
	}
}

// Root returns the root directory node
func (f *FS) Root() (fs.Node, error) {
	return &Dir{fs: f, path: pathhash.Empty}, nil
}

// Dir is a folder of the search section.
type Dir struct {
	fs   *FS
	path pathhash.Hash
}

func inode(h pathhash.Hash) uint64 {
	if h == pathhash.Empty {
		return 1
	}
	return uint64(h)
}

// Attr returns directory attributes
func (d *Dir) Attr(ctx context.Context, a *fuse.Attr) error {
	a.Inode = inode(d.path)
	a.Mode = os.ModeDir | 0o555
	a.Mtime = d.fs.mounted
	a.Ctime = d.fs.mounted
	a.Atime = time.Now()
	return nil
}

// files returns the file path indices dir currently resolves to. It takes
// the manager's read lock itself, so it must not be called inside View.
func (d *Dir) files() []uint32 {
	return d.fs.loader.LoadDir(d.path)
}

// Lookup resolves a child name to a node
func (d *Dir) Lookup(ctx context.Context, name string) (fs.Node, error) {
	h := pathhash.New(name)

	var sub *Dir
	d.fs.mgr.View(func(idx *arc.Index) {
		if _, e, ok := search.DirectChild(idx, d.path, h); ok && e.IsDir {
			sub = &Dir{fs: d.fs, path: e.Path}
		}
	})
	if sub != nil {
		return sub, nil
	}

	files := d.files()
	var file *File
	d.fs.mgr.View(func(idx *arc.Index) {
		for _, i := range files {
			fp, err := idx.FilePath(i)
			if err != nil || fp.FileName != h {
				continue
			}
			file = &File{fs: d.fs, path: fp.Path}
			return
		}
	})
	if file != nil {
		return file, nil
	}
	return nil, syscall.ENOENT
}

// ReadDirAll lists subfolders from the search tree and files from the loader
func (d *Dir) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	files := d.files()

	var dirents []fuse.Dirent
	d.fs.mgr.View(func(idx *arc.Index) {
		labels := idx.Labels()
		for _, e := range search.Walk(idx, d.path, 1) {
			if !e.IsDir() {
				continue
			}
			dirents = append(dirents, fuse.Dirent{
				Inode: inode(e.Path.Path),
				Name:  labels.Format(e.Path.FileName),
				Type:  fuse.DT_Dir,
			})
		}
		for _, i := range files {
			fp, err := idx.FilePath(i)
			if err != nil {
				d.fs.log.Warn("file path index out of range", zap.Uint32("index", i))
				continue
			}
			dirents = append(dirents, fuse.Dirent{
				Inode: inode(fp.Path),
				Name:  labels.Format(fp.FileName),
				Type:  fuse.DT_File,
			})
		}
	})
	return dirents, nil
}

// File is one resolved archive file.
type File struct {
	fs   *FS
	path pathhash.Hash
}

func (f *File) read() ([]byte, error) {
	var data []byte
	var err error
	f.fs.mgr.View(func(idx *arc.Index) {
		data, err = idx.ReadFile(f.path)
	})
	if err != nil {
		f.fs.log.Error("failed to read file", zap.Stringer("path", f.path), zap.Error(err))
		return nil, syscall.EIO
	}
	return data, nil
}

// Attr returns file attributes
func (f *File) Attr(ctx context.Context, a *fuse.Attr) error {
	data, err := f.read()
	if err != nil {
		return err
	}
	a.Inode = inode(f.path)
	a.Mode = 0o444
	a.Size = uint64(len(data))
	a.Mtime = f.fs.mounted
	a.Ctime = f.fs.mounted
	a.Atime = time.Now()
	return nil
}

// ReadAll reads the entire file content
func (f *File) ReadAll(ctx context.Context) ([]byte, error) {
	metrics.RecordFUSERead()
	return f.read()
}
