package fileproc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/carbonsense/carbonsense/pkg/analyzer"
)

func TestMapFiles(t *testing.T) {
	tmpDir := t.TempDir()

	files := []string{
		createTestFile(t, tmpDir, "a.js", "const a = 1;"),
		createTestFile(t, tmpDir, "b.js", "const b = 2;"),
		createTestFile(t, tmpDir, "c.js", "const c = 3;"),
	}

	results, errs := MapFiles(context.Background(), files, 0, func(_ context.Context, path string) (string, error) {
		return filepath.Base(path), nil
	})

	if errs != nil {
		t.Errorf("Unexpected errors: %v", errs)
	}
	if len(results) != len(files) {
		t.Fatalf("Expected %d results, got %d", len(files), len(results))
	}

	// Results are parallel to the input.
	for i, want := range []string{"a.js", "b.js", "c.js"} {
		if results[i] != want {
			t.Errorf("results[%d] = %q, want %q", i, results[i], want)
		}
	}
}

func TestMapFiles_EmptyFileList(t *testing.T) {
	results, errs := MapFiles(context.Background(), []string{}, 0, func(_ context.Context, path string) (string, error) {
		return path, nil
	})

	if results != nil {
		t.Errorf("Expected nil for empty file list, got %v", results)
	}
	if errs != nil {
		t.Errorf("Expected nil errors for empty file list, got %v", errs)
	}
}

func TestMapFiles_WithErrors(t *testing.T) {
	tmpDir := t.TempDir()

	files := []string{
		createTestFile(t, tmpDir, "good1.js", "x"),
		createTestFile(t, tmpDir, "bad.js", "x"),
		createTestFile(t, tmpDir, "good2.js", "x"),
	}

	var processed atomic.Int32
	results, errs := MapFiles(context.Background(), files, 2, func(_ context.Context, path string) (string, error) {
		processed.Add(1)
		if filepath.Base(path) == "bad.js" {
			return "", fmt.Errorf("simulated error")
		}
		return filepath.Base(path), nil
	})

	if int(processed.Load()) != 3 {
		t.Errorf("Expected all 3 files to be processed, got %d", processed.Load())
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 result slots, got %d", len(results))
	}
	if results[1] != "" {
		t.Errorf("Failed file should hold the zero value, got %q", results[1])
	}
	if results[0] != "good1.js" || results[2] != "good2.js" {
		t.Errorf("Unexpected results: %v", results)
	}

	if errs == nil {
		t.Fatal("Expected errors to be returned")
	}
	if len(errs.Errors) != 1 {
		t.Fatalf("Expected 1 error, got %d", len(errs.Errors))
	}
	if errs.Errors[0].Path != files[1] {
		t.Errorf("Error path = %q, want %q", errs.Errors[0].Path, files[1])
	}
}

func TestMapFiles_SingleWorker(t *testing.T) {
	files := make([]string, 20)
	for i := range files {
		files[i] = fmt.Sprintf("file%02d.js", i)
	}

	var running, maxRunning atomic.Int32
	results, errs := MapFiles(context.Background(), files, 1, func(_ context.Context, path string) (int, error) {
		n := running.Add(1)
		if n > maxRunning.Load() {
			maxRunning.Store(n)
		}
		defer running.Add(-1)
		return len(path), nil
	})

	if errs != nil {
		t.Errorf("Unexpected errors: %v", errs)
	}
	if maxRunning.Load() != 1 {
		t.Errorf("Expected at most 1 concurrent call, saw %d", maxRunning.Load())
	}
	for i, r := range results {
		if r != len(files[i]) {
			t.Errorf("results[%d] = %d, want %d", i, r, len(files[i]))
		}
	}
}

func TestMapFiles_WithProgress(t *testing.T) {
	files := []string{"1.js", "2.js", "3.js", "4.js", "5.js"}

	var progressCount atomic.Int32
	tracker := analyzer.NewTracker(func(analyzer.Progress) {
		progressCount.Add(1)
	})

	ctx := analyzer.WithTracker(context.Background(), tracker)
	_, errs := MapFiles(ctx, files, 0, func(_ context.Context, path string) (int, error) {
		if path == "3.js" {
			return 0, errors.New("boom")
		}
		return 1, nil
	})

	if errs == nil || errs.Len() != 1 {
		t.Errorf("Expected exactly one error, got %v", errs)
	}
	// Failed files still tick.
	if int(progressCount.Load()) != len(files) {
		t.Errorf("Expected progress callback %d times, got %d", len(files), progressCount.Load())
	}
	snap := tracker.Snapshot()
	if snap.Total != len(files) {
		t.Errorf("Tracker total = %d, want %d", snap.Total, len(files))
	}
	if snap.Failed != 1 {
		t.Errorf("Tracker failed = %d, want 1", snap.Failed)
	}
}

func TestMapFiles_Cancelled(t *testing.T) {
	files := make([]string, 50)
	for i := range files {
		files[i] = fmt.Sprintf("file%d.js", i)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var called atomic.Int32
	_, errs := MapFiles(ctx, files, 4, func(_ context.Context, path string) (int, error) {
		called.Add(1)
		return 1, nil
	})

	if errs == nil {
		t.Fatal("Expected cancellation errors")
	}
	if called.Load() != 0 {
		t.Errorf("Expected no calls after cancellation, got %d", called.Load())
	}
	if errs.Len() != len(files) {
		t.Errorf("Expected %d errors, got %d", len(files), errs.Len())
	}
	for _, e := range errs.Errors {
		if !errors.Is(e, context.Canceled) {
			t.Errorf("Expected context.Canceled, got %v", e.Err)
		}
	}
}

func TestWorkers(t *testing.T) {
	if Workers(3) != 3 {
		t.Errorf("Workers(3) = %d, want 3", Workers(3))
	}
	if Workers(0) < DefaultWorkerMultiplier {
		t.Errorf("Workers(0) = %d, want at least %d", Workers(0), DefaultWorkerMultiplier)
	}
	if Workers(-1) != Workers(0) {
		t.Errorf("Workers(-1) = %d, want default %d", Workers(-1), Workers(0))
	}
}

func TestProcessingError(t *testing.T) {
	inner := fmt.Errorf("read failed")
	err := ProcessingError{Path: "/path/to/file.js", Err: inner}
	expected := "/path/to/file.js: read failed"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, inner) {
		t.Error("ProcessingError should unwrap to its cause")
	}
}

func TestProcessingErrors(t *testing.T) {
	errs := &ProcessingErrors{}

	if errs.HasErrors() {
		t.Error("Empty ProcessingErrors should not have errors")
	}
	if errs.Error() != "no errors" {
		t.Errorf("Empty error message = %q, want 'no errors'", errs.Error())
	}

	errs.Add("/file1.js", fmt.Errorf("error1"))
	if !errs.HasErrors() {
		t.Error("ProcessingErrors with one error should have errors")
	}
	if errs.Error() != "/file1.js: error1" {
		t.Errorf("Single error message = %q", errs.Error())
	}

	errs.Add("/file2.js", fmt.Errorf("error2"))
	if errs.Len() != 2 {
		t.Errorf("Expected 2 errors, got %d", errs.Len())
	}
	if got := errs.Error(); got != "2 files failed to process (first: /file1.js: error1)" {
		t.Errorf("Multiple error message = %q", got)
	}
}

func TestProcessingErrors_ThreadSafe(t *testing.T) {
	errs := &ProcessingErrors{}
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			errs.Add(fmt.Sprintf("/file%d.js", n), fmt.Errorf("error %d", n))
		}(i)
	}
	wg.Wait()

	if errs.Len() != 100 {
		t.Errorf("Expected 100 errors, got %d", errs.Len())
	}
}

func BenchmarkMapFiles(b *testing.B) {
	tmpDir := b.TempDir()

	files := make([]string, 100)
	for i := range files {
		files[i] = createTestFile(b, tmpDir, fmt.Sprintf("file%d.js", i), "for (let i = 0; i < 10; i++) {}")
	}

	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results, _ := MapFiles(ctx, files, 0, func(_ context.Context, path string) (int, error) {
			data, err := os.ReadFile(path)
			return len(data), err
		})
		if len(results) != len(files) {
			b.Fatalf("Expected %d results, got %d", len(files), len(results))
		}
	}
}

func createTestFile(t testing.TB, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file %s: %v", name, err)
	}
	return path
}
