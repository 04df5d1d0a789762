package dataset

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/Veraticus/fraudcheck/internal/common"
)

// archiveReader closes both the member stream and the archive it came from.
type archiveReader struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (a *archiveReader) Close() error {
	return errors.Join(a.ReadCloser.Close(), a.archive.Close())
}

// isArchive reports whether the path names a zip archive.
func isArchive(name string) bool {
	return strings.EqualFold(path.Ext(name), ".zip")
}

// openArchiveMember opens one CSV member of a zip archive without extracting it.
// An empty member selects the archive's only CSV file.
func openArchiveMember(archivePath, member string) (io.ReadCloser, string, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open archive %s: %w", archivePath, err)
	}

	file, err := findMember(zr.File, member)
	if err != nil {
		_ = zr.Close()
		return nil, "", fmt.Errorf("%s: %w", archivePath, err)
	}

	rc, err := file.Open()
	if err != nil {
		_ = zr.Close()
		return nil, "", fmt.Errorf("failed to open archive member %s: %w", file.Name, err)
	}

	return &archiveReader{ReadCloser: rc, archive: zr}, file.Name, nil
}

func findMember(files []*zip.File, member string) (*zip.File, error) {
	var csvFiles []*zip.File
	for _, f := range files {
		if f.FileInfo().IsDir() {
			continue
		}
		if member != "" && (f.Name == member || path.Base(f.Name) == member) {
			return f, nil
		}
		if strings.EqualFold(path.Ext(f.Name), ".csv") {
			csvFiles = append(csvFiles, f)
		}
	}

	if member != "" {
		return nil, fmt.Errorf("%w: %s", common.ErrArchiveMember, member)
	}

	switch len(csvFiles) {
	case 0:
		return nil, fmt.Errorf("%w: archive holds no CSV file", common.ErrArchiveMember)
	case 1:
		return csvFiles[0], nil
	default:
		names := make([]string, len(csvFiles))
		for i, f := range csvFiles {
			names[i] = f.Name
		}
		return nil, fmt.Errorf("%w: archive holds %d CSV files (%s), choose one",
			common.ErrArchiveMember, len(csvFiles), strings.Join(names, ", "))
	}
}
