package models

import "testing"

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "plain extension", input: "pdf", want: FormatPDF},
		{name: "leading dot", input: ".docx", want: FormatDOCX},
		{name: "upper case", input: "PNG", want: FormatPNG},
		{name: "surrounding space", input: " csv ", want: FormatCSV},
		{name: "unknown extension", input: "exe", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "dot only", input: ".", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatFromFilename(t *testing.T) {
	t.Run("derives from last extension", func(t *testing.T) {
		f, err := FormatFromFilename("report.final.pdf")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f != FormatPDF {
			t.Errorf("expected pdf, got %v", f)
		}
	})

	t.Run("no extension", func(t *testing.T) {
		if _, err := FormatFromFilename("README"); err == nil {
			t.Error("expected error for extensionless name")
		}
	})

	t.Run("trailing dot", func(t *testing.T) {
		if _, err := FormatFromFilename("weird."); err == nil {
			t.Error("expected error for trailing dot")
		}
	})

	t.Run("disallowed extension", func(t *testing.T) {
		if _, err := FormatFromFilename("malware.exe"); err == nil {
			t.Error("expected error for .exe")
		}
	})
}

func TestFormatPredicates(t *testing.T) {
	if !FormatPNG.IsImage() || FormatPDF.IsImage() {
		t.Error("IsImage misclassified")
	}
	if !FormatTXT.IsTextual() || FormatDOCX.IsTextual() {
		t.Error("IsTextual misclassified")
	}
	if FormatXLSX.Ext() != ".xlsx" {
		t.Errorf("Ext() = %v", FormatXLSX.Ext())
	}
}
