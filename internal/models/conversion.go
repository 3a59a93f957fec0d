package models

import "time"

// EngineID identifies a conversion engine.
type EngineID string

const (
	// EngineNative runs in-process writers (gofpdf, stdlib image codecs).
	EngineNative EngineID = "native"
	// EnginePandoc shells out to pandoc. Fast, document formats only.
	EnginePandoc EngineID = "pandoc"
	// EngineSoffice shells out to LibreOffice headless. Slow but broad.
	EngineSoffice EngineID = "soffice"
	// EngineOCRPipeline marks results produced by the OCR+convert pipeline.
	EngineOCRPipeline EngineID = "ocr-pipeline"
)

// ConversionOptions carries the recognized per-request option flags.
type ConversionOptions struct {
	OCR         bool   `json:"ocr"`
	HighQuality bool   `json:"highQuality"`
	Translate   bool   `json:"translate"`
	TargetLang  string `json:"targetLanguage"`
	DPI         int    `json:"dpi"`
}

// ConversionRequest is created once per incoming upload. The request owns
// inputPath exclusively until the conversion attempt completes; the
// Dispatcher deletes it exactly once on every exit path.
type ConversionRequest struct {
	InputPath    string
	InputFormat  Format
	OutputFormat Format
	Options      ConversionOptions
}

// ConversionResult is returned once per request. Exactly one of OutputPath
// (success) or ErrorKind (failure) is set.
type ConversionResult struct {
	OutputPath string
	EngineUsed EngineID
	Success    bool
	ErrorKind  ErrorKind
	Err        error
	TimingMs   int64
}

// OcrPageResult is produced for each rendered page of an OCR job.
// PageIndex is zero-based and contiguous within a job.
type OcrPageResult struct {
	PageIndex  int     `json:"page"`
	Confidence float64 `json:"confidence"`
	WordCount  int     `json:"words"`
	Text       string  `json:"-"`
}

// AnalyticsRecord is appended after every dispatcher invocation.
// Records are never mutated or deleted by this service.
type AnalyticsRecord struct {
	Timestamp    time.Time `json:"timestamp" msgpack:"ts"`
	InputFormat  string    `json:"inputFormat" msgpack:"in"`
	OutputFormat string    `json:"outputFormat" msgpack:"out"`
	Success      bool      `json:"success" msgpack:"ok"`
	ErrorKind    string    `json:"errorKind,omitempty" msgpack:"err,omitempty"`
	DurationMs   int64     `json:"durationMs" msgpack:"ms"`
}
