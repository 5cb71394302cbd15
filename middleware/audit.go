package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/itemvault/audit"
)

const (
	auditEntityKey   = "audit_entity"
	auditEntityIDKey = "audit_entity_id"
	auditRequestKey  = "audit_request"
)

// Auditor receives one entry per audited request.
type Auditor interface {
	Log(entry audit.AuditEntry)
}

// Audit records the outcome of the route under the given action name once
// the handler has run. Handlers describe what they touched with
// SetAuditTarget and SetAuditRequest. A nil auditor disables recording.
//
// A panicking handler is recorded as failed and the panic is re-raised for
// Recovery to answer.
func Audit(a Auditor, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if a == nil {
			c.Next()
			return
		}
		start := time.Now()
		defer func() {
			p := recover()
			a.Log(auditEntry(c, action, start, p))
			if p != nil {
				panic(p)
			}
		}()
		c.Next()
	}
}

func auditEntry(c *gin.Context, action string, start time.Time, panicked any) audit.AuditEntry {
	entry := audit.AuditEntry{
		TraceID:    GetTraceID(c),
		Action:     action,
		Entity:     c.GetString(auditEntityKey),
		IP:         c.ClientIP(),
		DurationMs: int(time.Since(start).Milliseconds()),
	}
	if v, ok := c.Get(auditEntityIDKey); ok {
		id := v.(int64)
		entry.EntityID = &id
	}
	if v, ok := c.Get(auditRequestKey); ok {
		entry.Request = v
	}
	switch last := c.Errors.Last(); {
	case panicked != nil:
		entry.Error = fmt.Sprintf("panic: %v", panicked)
	case last != nil:
		entry.Error = last.Error()
	case c.Writer.Status() >= http.StatusBadRequest:
		entry.Error = http.StatusText(c.Writer.Status())
	}
	return entry
}

// SetAuditTarget names the entity an audited request acted on. id may be
// zero when the request failed before an id was known.
func SetAuditTarget(c *gin.Context, entity string, id int64) {
	c.Set(auditEntityKey, entity)
	if id != 0 {
		c.Set(auditEntityIDKey, id)
	}
}

// SetAuditRequest stores the decoded request body for the audit entry.
func SetAuditRequest(c *gin.Context, body any) {
	c.Set(auditRequestKey, body)
}
