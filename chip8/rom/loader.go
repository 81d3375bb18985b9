package rom

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/sevenzip"
	"github.com/ulikunitz/xz"
)

// maxDecompressedSize bounds how much is read out of an archive, far above any CHIP-8 program.
const maxDecompressedSize = 1 << 20

// ErrEmptyArchive is returned when an archive holds no files.
var ErrEmptyArchive = errors.New("archive contains no files")

// Load reads a ROM from disk, decompressing it when the extension names an
// archive format (.zip, .7z, .gz, .xz). Archives yield their first file.
func Load(filename string) ([]byte, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read ROM: %w", err)
	}

	rom, err := Decode(filename, data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(filename), err)
	}

	slog.Debug("ROM file read", "path", filename, "size", len(data), "rom_size", len(rom))
	return rom, nil
}

// Decode returns the program inside data, using the extension of name to pick the format.
// Unknown extensions are returned as is.
func Decode(name string, data []byte) ([]byte, error) {
	var (
		decoder io.Reader
		err     error
	)

	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		decoder, err = gzip.NewReader(bytes.NewReader(data))
	case ".xz":
		decoder, err = xz.NewReader(bytes.NewReader(data))
	case ".zip":
		decoder, err = openZip(data)
	case ".7z":
		decoder, err = openSevenZip(data)
	default:
		// plain .ch8 / .c8 / .bin images
		return data, nil
	}
	if err != nil {
		return nil, err
	}
	if closer, ok := decoder.(io.Closer); ok {
		defer closer.Close()
	}

	return io.ReadAll(io.LimitReader(decoder, maxDecompressedSize))
}

func openZip(data []byte) (io.Reader, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	return firstFile(zipReader.File)
}

func openSevenZip(data []byte) (io.Reader, error) {
	r, err := sevenzip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return firstFile(r.File)
}

// archiveFile is an entry of a zip or 7z archive.
type archiveFile interface {
	FileInfo() fs.FileInfo
	Open() (io.ReadCloser, error)
}

// firstFile opens the first regular file, skipping directory entries.
func firstFile[F archiveFile](files []F) (io.Reader, error) {
	for _, file := range files {
		if file.FileInfo().IsDir() {
			continue
		}
		return file.Open()
	}
	return nil, ErrEmptyArchive
}
