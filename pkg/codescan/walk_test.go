package codescan

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	mustWrite(t, filepath.Join(root, "orders", "service.py"),
		"def create_order(payload):\n    return payload\n")
	mustWrite(t, filepath.Join(root, "web", "Form.jsx"),
		"export default function OrderForm() { return null; }\n")
	mustWrite(t, filepath.Join(root, "node_modules", "dep", "index.js"),
		"export function ignored() {}\n")
	mustWrite(t, filepath.Join(root, "__pycache__", "junk.py"),
		"def ignored(): pass\n")
	mustWrite(t, filepath.Join(root, "README.md"), "# nothing\n")

	res, err := ScanDirectory(context.Background(), root)
	if err != nil {
		t.Fatalf("ScanDirectory() error = %v", err)
	}

	if len(res.Functions) != 1 {
		t.Fatalf("functions = %+v, want 1", res.Functions)
	}
	if res.Functions[0].FilePath != "orders/service.py" {
		t.Fatalf("file_path = %q, want slash-relative path", res.Functions[0].FilePath)
	}
	if len(res.ReactItems) != 1 || res.ReactItems[0].Name != "OrderForm" {
		t.Fatalf("react items = %+v, want only OrderForm", res.ReactItems)
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
