package worker

import (
	"github.com/spec-kit/authportal/internal/service"
)

// StartSessionAudit registers the audit handlers.
func StartSessionAudit(audit *service.SessionAudit) {
	if audit == nil {
		return
	}
	audit.RegisterHandlers()
}
