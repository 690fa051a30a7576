package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/bbug/internal/logger"

	// Ensure SHA512 available for checksum calculation.
	_ "crypto/sha512"
)

const (
	// DefaultArchiveName is the file name of the packaged module.
	DefaultArchiveName = "app.zip"

	// DefaultFileMode is used for the archive on disk.
	DefaultFileMode os.FileMode = 0o644

	// ChecksumFunction is used to verify the archive before it replaces the target.
	ChecksumFunction crypto.Hash = crypto.SHA512
)

var errHashUnavailable = errors.New("hash function unavailable")

// DefaultTarget returns the well-known archive location in the temp directory.
func DefaultTarget() string {
	return filepath.Join(os.TempDir(), DefaultArchiveName)
}

// Artifact describes a packaged archive.
type Artifact struct {
	// Path is where the archive was written.
	Path string
	// Size is the archive size in bytes.
	Size int64
	// Files is the number of files stored.
	Files int
	// Checksum is the SHA-512 digest of the archive.
	Checksum []byte
}

// Zip packages a directory tree into a zip archive.
type Zip struct{}

// NewZip creates a zip packager.
func NewZip() *Zip {
	return new(Zip)
}

// Package compresses srcDir into target. A missing srcDir yields an empty
// archive. The archive is verified against its checksum and swapped into
// place atomically, so a concurrent reader never sees a partial file.
func (z *Zip) Package(ctx context.Context, srcDir, target string) (*Artifact, error) {
	files, err := listFiles(srcDir)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	writer := zip.NewWriter(&buf)

	for _, rel := range files {
		if err = ctx.Err(); err != nil {
			return nil, err
		}

		if err = addFile(writer, srcDir, rel); err != nil {
			return nil, err
		}
	}

	if err = writer.Close(); err != nil {
		return nil, fmt.Errorf("finish archive: %w", err)
	}

	checksum, err := computeChecksum(buf.Bytes())
	if err != nil {
		return nil, err
	}

	if err = apply(target, buf.Bytes(), checksum); err != nil {
		return nil, err
	}

	artifact := &Artifact{
		Path:     target,
		Size:     int64(buf.Len()),
		Files:    len(files),
		Checksum: checksum,
	}

	logger.InfoKV(ctx, "Packaged module", "path", artifact.Path, "files", artifact.Files, "bytes", artifact.Size)

	return artifact, nil
}

// listFiles returns the regular files below root as sorted slash paths.
func listFiles(root string) ([]string, error) {
	if _, err := os.Stat(root); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		files = append(files, filepath.ToSlash(rel))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(files)

	return files, nil
}

// addFile stores one file in the archive.
func addFile(writer *zip.Writer, root, rel string) error {
	path := filepath.Join(root, filepath.FromSlash(rel))

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", rel, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("header %s: %w", rel, err)
	}

	header.Name = rel
	header.Method = zip.Deflate

	entry, err := writer.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create %s: %w", rel, err)
	}

	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open %s: %w", rel, err)
	}

	defer func() {
		_ = file.Close()
	}()

	if _, err = io.Copy(entry, file); err != nil {
		return fmt.Errorf("compress %s: %w", rel, err)
	}

	return nil
}

// computeChecksum returns the archive digest.
func computeChecksum(data []byte) ([]byte, error) {
	if !ChecksumFunction.Available() {
		return nil, fmt.Errorf("checksum calculation not possible: %w", errHashUnavailable)
	}

	hasher := ChecksumFunction.New()
	if _, err := hasher.Write(data); err != nil {
		return nil, fmt.Errorf("calculate checksum: %w", err)
	}

	return hasher.Sum(nil), nil
}

// apply replaces target with data after go-update verified the checksum.
func apply(target string, data, checksum []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil { //nolint:mnd // Directory mode.
		return fmt.Errorf("create archive directory: %w", err)
	}

	// go-update renames the current target aside, so it has to exist.
	if _, err := os.Stat(target); errors.Is(err, os.ErrNotExist) {
		placeholder, createErr := os.Create(filepath.Clean(target))
		if createErr != nil {
			return fmt.Errorf("create archive: %w", createErr)
		}

		_ = placeholder.Close()
	}

	options := goupdate.Options{
		TargetPath: target,
		TargetMode: DefaultFileMode,
		Checksum:   checksum,
		Hash:       ChecksumFunction,
	}

	if err := goupdate.Apply(bytes.NewReader(data), options); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}

	return nil
}
