package excel

import (
	"healthinsights/adapters/datareadiness/coercer"
)

// ReaderConfig holds configuration for a tabular data source
type ReaderConfig struct {
	FilePath       string                 `json:"file_path"`
	Comma          rune                   `json:"comma"`
	Sheet          string                 `json:"sheet,omitempty"` // xlsx only; first sheet when empty
	CoercionConfig coercer.CoercionConfig `json:"coercion_config"`
}

// DefaultReaderConfig returns sensible defaults for CSV processing
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		Comma:          ',',
		CoercionConfig: coercer.DefaultCoercionConfig(),
	}
}
