package consts

const (
	// ISO 2709 leader is always 24 bytes.
	ISO2709_LEADER_SIZE = 24

	// Default directory geometry widths (entry map digits).
	ISO2709_DEFAULT_TAG_LEN    = 3
	ISO2709_DEFAULT_LEN_LEN    = 4
	ISO2709_DEFAULT_POS_LEN    = 5
	ISO2709_DEFAULT_CUSTOM_LEN = 0

	// Default field and record terminators. Both are '#' in the ISIS
	// interchange files this library targets (spec 2709 uses IS2/IS3).
	ISO2709_FIELD_TERMINATOR  = 0x23
	ISO2709_RECORD_TERMINATOR = 0x23

	// Default line wrapping applied to ISO output streams.
	ISO2709_DEFAULT_LINE_LEN = 80
	ISO2709_DEFAULT_NEWLINE  = 0x0A

	// Subfield delimiter used inside field values, e.g. "^aSão Paulo".
	SUBFIELD_DELIMITER = '^'

	// Key assigned to the text preceding the first subfield delimiter.
	SUBFIELD_PREFIX_KEY = "_"

	// Key carrying the 1-based field occurrence index in pairs/nest output.
	SUBFIELD_NUMBER_KEY = "#"

	// CDS/ISIS master files are organized in fixed 512-byte blocks.
	MST_BLOCK_SIZE = 512

	// MST control record occupies the first 32 bytes of block 1.
	MST_CONTROL_SIZE = 32

	// MST record leader size, shared by the ISIS and FFI layouts.
	MST_LEADER_SIZE = 32

	// XRF blocks hold a 4-byte block pointer followed by 127 packed
	// 4-byte MFN pointers.
	XRF_BLOCK_SIZE      = 512
	XRF_SLOTS_PER_BLOCK = 127

	// Default character sets.
	DEFAULT_ISO_ENCODING  = "cp1252"
	DEFAULT_MST_ENCODING  = "cp1252"
	DEFAULT_JSON_ENCODING = "utf-8"
)
