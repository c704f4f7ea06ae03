package options

import (
	"github.com/go-logr/logr"

	"github.com/scieloorg/ioisis/pkg/consts"
	"github.com/scieloorg/ioisis/pkg/mst"
	"github.com/scieloorg/ioisis/pkg/subfield"
)

// Options represents the conversion settings shared by every front end.
type Options struct {
	IsoEncoding  string
	JsonEncoding string
	Mode         subfield.Mode
	WithNumber   bool
	OnlyActive   bool
	MstFormat    mst.Format
	LineLen      int
	Newline      byte
	FieldTerm    byte
	RecordTerm   byte
	TagLen       int
	LenLen       int
	PosLen       int
	CustomLen    int
	MfnKey       bool
	ActiveKey    bool
	Logger       logr.Logger
}

// Option represents a function that modifies the Options
type Option func(*Options)

// Defaults returns the conventional CDS/ISIS settings.
func Defaults() Options {
	return Options{
		IsoEncoding:  consts.DEFAULT_ISO_ENCODING,
		JsonEncoding: consts.DEFAULT_JSON_ENCODING,
		Mode:         subfield.ModeField,
		WithNumber:   true,
		MstFormat:    mst.FormatISIS,
		LineLen:      consts.ISO2709_DEFAULT_LINE_LEN,
		Newline:      consts.ISO2709_DEFAULT_NEWLINE,
		FieldTerm:    consts.ISO2709_FIELD_TERMINATOR,
		RecordTerm:   consts.ISO2709_RECORD_TERMINATOR,
		TagLen:       consts.ISO2709_DEFAULT_TAG_LEN,
		LenLen:       consts.ISO2709_DEFAULT_LEN_LEN,
		PosLen:       consts.ISO2709_DEFAULT_POS_LEN,
		CustomLen:    consts.ISO2709_DEFAULT_CUSTOM_LEN,
		MfnKey:       true,
		ActiveKey:    true,
		Logger:       logr.Discard(),
	}
}

// WithIsoEncoding sets the character set of ISO and MST data.
func WithIsoEncoding(name string) Option {
	return func(o *Options) {
		o.IsoEncoding = name
	}
}

// WithJsonEncoding sets the character set of the JSONL lines.
func WithJsonEncoding(name string) Option {
	return func(o *Options) {
		o.JsonEncoding = name
	}
}

// WithMode selects the field, pairs or nest presentation of values.
func WithMode(mode subfield.Mode) Option {
	return func(o *Options) {
		o.Mode = mode
	}
}

// WithNumber toggles the "#" occurrence key in pairs and nest modes.
func WithNumber(enabled bool) Option {
	return func(o *Options) {
		o.WithNumber = enabled
	}
}

// WithOnlyActive makes master file iteration skip logically deleted records.
func WithOnlyActive(enabled bool) Option {
	return func(o *Options) {
		o.OnlyActive = enabled
	}
}

// WithMstFormat selects the ISIS or FFI master file layout.
func WithMstFormat(f mst.Format) Option {
	return func(o *Options) {
		o.MstFormat = f
	}
}

// WithLineLen sets the ISO line wrap width; zero disables wrapping.
func WithLineLen(n int) Option {
	return func(o *Options) {
		o.LineLen = n
	}
}

// WithNewline sets the ISO line wrap byte.
func WithNewline(b byte) Option {
	return func(o *Options) {
		o.Newline = b
	}
}

// WithTerminators sets the ISO field and record terminator bytes.
func WithTerminators(field, record byte) Option {
	return func(o *Options) {
		o.FieldTerm = field
		o.RecordTerm = record
	}
}

// WithGeometry sets the ISO directory widths.
func WithGeometry(tagLen, lenLen, posLen, customLen int) Option {
	return func(o *Options) {
		o.TagLen = tagLen
		o.LenLen = lenLen
		o.PosLen = posLen
		o.CustomLen = customLen
	}
}

// WithMetaKeys toggles the reserved "mfn" and "active" JSONL keys.
func WithMetaKeys(mfn, active bool) Option {
	return func(o *Options) {
		o.MfnKey = mfn
		o.ActiveKey = active
	}
}

// WithLogger sets the Logger for the conversion.
func WithLogger(logger logr.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}
