package domain

// Validation error reasons, emitted in the fixed order
// format → disposable → MX.
const (
	ReasonInvalidFormat    = "Invalid email format"
	ReasonDisposableDomain = "Disposable email domain"
	ReasonNoMXRecords      = "No valid MX records"
)

// ValidationResult is the detailed outcome of validating a single address.
// Pure value type, produced per call and never stored.
//
// Valid is true iff FormatValid && !Disposable && (!MXChecked || MXValid).
// Domain is always populated when the input contains an '@', even for
// addresses that fail the format check; empty means no domain was resolvable.
type ValidationResult struct {
	Email       string   `json:"email"`
	Valid       bool     `json:"valid"`
	FormatValid bool     `json:"format_valid"`
	Disposable  bool     `json:"disposable"`
	MXChecked   bool     `json:"mx_checked"`
	MXValid     bool     `json:"mx_valid"`
	Domain      string   `json:"domain,omitempty"`
	Errors      []string `json:"errors,omitempty"`
}

// Stats aggregates counts over a batch of addresses. Categories are counted
// independently; a single address can contribute to both Invalid and
// InvalidFormat. NoMX is only populated when the batch ran with MX checks.
type Stats struct {
	Total         int `json:"total"`
	Valid         int `json:"valid"`
	Invalid       int `json:"invalid"`
	InvalidFormat int `json:"invalid_format"`
	Disposable    int `json:"disposable"`
	NoMX          int `json:"no_mx,omitempty"`
}
