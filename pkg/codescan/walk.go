package codescan

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/covadev/covatrace/pkg/logger"
)

// ScanResult holds everything extracted from one code root.
type ScanResult struct {
	Functions  []StructuredFunction `json:"functions"`
	ReactItems []CodeItem           `json:"react_items"`
}

var skipDirs = map[string]bool{
	"__pycache__":   true,
	"node_modules":  true,
	"venv":          true,
	".venv":         true,
	"dist":          true,
	"build":         true,
	".git":          true,
	".pytest_cache": true,
	".mypy_cache":   true,
}

// ScanDirectory walks root recursively and extracts structural records from
// every Python and JS/TS source it finds. File order is deterministic
// (lexicographic walk order), so repeated scans of the same tree produce
// identical output.
//
// Unreadable or unparseable files are logged and skipped; a broken file
// should not sink the whole run.
func ScanDirectory(ctx context.Context, root string) (*ScanResult, error) {
	res := &ScanResult{
		Functions:  []StructuredFunction{},
		ReactItems: []CodeItem{},
	}

	pyFiles := []string{}
	jsFiles := []string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		switch {
		case ext == ".py":
			pyFiles = append(pyFiles, path)
		case jsExtensions[ext]:
			jsFiles = append(jsFiles, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(pyFiles)
	sort.Strings(jsFiles)

	extractor := NewPythonExtractor()
	for _, path := range pyFiles {
		src, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable file", "path", path, "error", err)
			continue
		}
		fns, err := extractor.ExtractFile(ctx, src, relPath(root, path))
		if err != nil {
			logger.Warn("skipping unparseable python file", "path", path, "error", err)
			continue
		}
		res.Functions = append(res.Functions, fns...)
	}

	for _, path := range jsFiles {
		src, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable file", "path", path, "error", err)
			continue
		}
		res.ReactItems = append(res.ReactItems, ExtractReactItems(src, relPath(root, path))...)
	}

	return res, nil
}

func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
