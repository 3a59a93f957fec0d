package models

import (
	"fmt"
	"strings"
)

// Format is a closed enumeration of file formats the service understands.
// Values are always lower-case extension strings; anything else is rejected
// at the API boundary by ParseFormat.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatTXT  Format = "txt"
	FormatMD   Format = "md"
	FormatHTML Format = "html"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJPG  Format = "jpg"
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// KnownFormats lists every format the service advertises.
var KnownFormats = []Format{
	FormatPDF, FormatDOCX, FormatTXT, FormatMD, FormatHTML,
	FormatCSV, FormatXLSX, FormatJPG, FormatJPEG, FormatPNG,
}

// ParseFormat validates an extension string (with or without a leading dot)
// against the known format set.
func ParseFormat(ext string) (Format, error) {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" {
		return "", fmt.Errorf("empty format")
	}
	f := Format(ext)
	for _, known := range KnownFormats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format: %s", ext)
}

// FormatFromFilename derives the format from a filename's extension.
func FormatFromFilename(name string) (Format, error) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return "", fmt.Errorf("filename has no extension: %s", name)
	}
	return ParseFormat(name[idx+1:])
}

// Ext returns the extension including the leading dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// IsImage reports whether the format is a flat raster image.
func (f Format) IsImage() bool {
	switch f {
	case FormatJPG, FormatJPEG, FormatPNG:
		return true
	}
	return false
}

// IsTextual reports whether the format carries plain extractable text
// without rendering or OCR.
func (f Format) IsTextual() bool {
	switch f {
	case FormatTXT, FormatMD, FormatHTML, FormatCSV:
		return true
	}
	return false
}
