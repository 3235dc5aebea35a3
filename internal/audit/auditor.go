package audit

import (
	"fmt"

	"github.com/averen/sigil/internal/config"
	"github.com/averen/sigil/internal/core"
)

// FromConfig builds the auditor selected in the config.
func FromConfig(cfg config.AuditConfig) (core.Auditor, error) {
	if !cfg.Enabled {
		return NewNoopAuditor(), nil
	}
	switch cfg.Type {
	case "file":
		return NewFileAuditor(cfg.Path)
	case "memory", "":
		return NewInMemoryAuditor(), nil
	default:
		return nil, fmt.Errorf("unknown audit type '%s'", cfg.Type)
	}
}
