package engine

import (
	"context"
	"errors"
	"image"
	_ "image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/swiftconvert/backend/internal/models"
	"github.com/swiftconvert/backend/internal/testutil"
)

func TestNative_TextToPDF(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "notes.txt")
	content := "SwiftConvert test document\nSecond line of text."
	if err := os.WriteFile(inputPath, []byte(content), 0644); err != nil {
		t.Fatalf("writing input: %v", err)
	}

	n := &Native{}
	outPath, err := n.Convert(context.Background(), inputPath, dir, models.FormatTXT, models.FormatPDF)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if filepath.Ext(outPath) != ".pdf" {
		t.Errorf("output extension = %s, want .pdf", filepath.Ext(outPath))
	}
	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Error("output does not start with PDF magic bytes")
	}
}

func TestNative_ImageToPDF(t *testing.T) {
	dir := t.TempDir()
	inputPath := testutil.WriteTestPNG(t, dir, "input.png")

	n := &Native{}
	outPath, err := n.Convert(context.Background(), inputPath, dir, models.FormatPNG, models.FormatPDF)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		t.Fatalf("stat output: %v", err)
	}
	if info.Size() == 0 {
		t.Error("output PDF is empty")
	}
}

func TestNative_ImageReencode(t *testing.T) {
	t.Run("png to jpg flattens alpha", func(t *testing.T) {
		dir := t.TempDir()
		inputPath := testutil.WriteTestPNG(t, dir, "input.png")

		n := &Native{}
		outPath, err := n.Convert(context.Background(), inputPath, dir, models.FormatPNG, models.FormatJPG)
		if err != nil {
			t.Fatalf("Convert failed: %v", err)
		}

		f, err := os.Open(outPath)
		if err != nil {
			t.Fatalf("opening output: %v", err)
		}
		defer f.Close()
		_, kind, err := image.Decode(f)
		if err != nil {
			t.Fatalf("decoding output: %v", err)
		}
		if kind != "jpeg" {
			t.Errorf("output kind = %s, want jpeg", kind)
		}
	})

	t.Run("png to png re-encode", func(t *testing.T) {
		dir := t.TempDir()
		outDir := t.TempDir()
		inputPath := testutil.WriteTestPNG(t, dir, "input.png")

		n := &Native{}
		outPath, err := n.Convert(context.Background(), inputPath, outDir, models.FormatPNG, models.FormatPNG)
		if err != nil {
			t.Fatalf("Convert failed: %v", err)
		}
		if filepath.Dir(outPath) != outDir {
			t.Errorf("output written outside outputDir: %s", outPath)
		}
	})
}

func TestNative_UnsupportedPair(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "sheet.csv")
	if err := os.WriteFile(inputPath, []byte("a,b\n1,2\n"), 0644); err != nil {
		t.Fatalf("writing input: %v", err)
	}

	n := &Native{}
	_, err := n.Convert(context.Background(), inputPath, dir, models.FormatCSV, models.FormatXLSX)
	if err == nil {
		t.Fatal("expected error for csv->xlsx")
	}
	var engErr *models.EngineExecutionError
	if !errors.As(err, &engErr) {
		t.Errorf("expected EngineExecutionError, got %T", err)
	}
	if engErr.Engine != models.EngineNative {
		t.Errorf("engine = %v", engErr.Engine)
	}
}

func TestNative_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(inputPath, []byte("text"), 0644); err != nil {
		t.Fatalf("writing input: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := &Native{}
	if _, err := n.Convert(ctx, inputPath, dir, models.FormatTXT, models.FormatPDF); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestOutputName(t *testing.T) {
	got := outputName("/tmp/uploads/abc-report.docx", models.FormatPDF)
	if got != "abc-report.pdf" {
		t.Errorf("outputName = %q", got)
	}
}
