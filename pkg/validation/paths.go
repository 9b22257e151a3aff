package validation

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrSameFile          = errors.New("source and destination are the same file")
	ErrNestedDestination = errors.New("destination is inside the source directory")
)

// CheckFile rejects copying a file onto itself. The destination is opened
// with O_TRUNC, so such a copy would wipe the source before a single byte is
// read. A missing destination is fine.
func CheckFile(src, dst string) error {
	dstInfo, err := os.Stat(dst)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to stat destination %s", dst)
	}

	srcInfo, err := os.Stat(src)
	if err != nil {
		return errors.Wrapf(err, "failed to stat source %s", src)
	}

	if os.SameFile(srcInfo, dstInfo) {
		return errors.Wrapf(ErrSameFile, "%s", src)
	}

	return nil
}

// CheckDir rejects mirroring a directory into itself or into one of its own
// descendants, which would recurse without end. The comparison is purely
// path-based because the destination usually does not exist yet.
func CheckDir(src, dst string) error {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve source %s", src)
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return errors.Wrapf(err, "failed to resolve destination %s", dst)
	}

	rel, err := filepath.Rel(absSrc, absDst)
	if err != nil {
		// Different volumes cannot nest.
		return nil
	}

	outside := rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
	if !outside {
		return errors.Wrapf(ErrNestedDestination, "source %s, destination %s", src, dst)
	}

	return nil
}
