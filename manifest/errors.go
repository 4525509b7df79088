package manifest

import "fmt"

// ConfigError reports a broken dataset contract: a missing or malformed
// manifest, an unsupported version, or a declared file that does not exist.
// Config errors are raised at load time so lookups never run against a
// dataset that cannot honor them.
type ConfigError struct {
	// Path is the dataset-relative path of the offending document.
	Path   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("manifest %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("manifest %s: %s", e.Path, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.Err }
