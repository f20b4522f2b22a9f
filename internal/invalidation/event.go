// Package invalidation defines the directory-change events that purge the
// response cache.
package invalidation

import (
	"fmt"
	"strings"
	"time"
)

// Event is emitted by the admin CMS whenever a company or one of its child
// rows changes. Seq increases monotonically per company so replayed or
// reordered deliveries can be dropped.
type Event struct {
	Version   int       `json:"version"`
	Op        string    `json:"op"`
	CompanyID string    `json:"company_id"`
	Seq       uint64    `json:"seq"`
	TS        time.Time `json:"ts"`
	Source    string    `json:"source,omitempty"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	switch e.Op {
	case "insert", "update", "delete":
	default:
		return fmt.Errorf("op must be insert|update|delete")
	}
	if strings.TrimSpace(e.CompanyID) == "" {
		return fmt.Errorf("company_id is required")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	return nil
}
