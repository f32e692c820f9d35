// Package logging provides a fluent structured-logging field builder
// shared by verifyd's packages, plus domain-specific field-set
// constructors for the most common log call sites.
package logging

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Fields is a fluent builder over a structured log field set.
type Fields map[string]interface{}

// NewFields returns an empty field set.
func NewFields() Fields {
	return Fields{}
}

func (f Fields) Component(name string) Fields {
	f["component"] = name
	return f
}

func (f Fields) Operation(name string) Fields {
	f["operation"] = name
	return f
}

func (f Fields) Resource(resourceType, name string) Fields {
	f["resource_type"] = resourceType
	if name != "" {
		f["resource_name"] = name
	}
	return f
}

func (f Fields) Duration(d time.Duration) Fields {
	f["duration_ms"] = d.Milliseconds()
	return f
}

func (f Fields) Error(err error) Fields {
	if err != nil {
		f["error"] = err.Error()
	}
	return f
}

func (f Fields) UserID(id string) Fields {
	if id != "" {
		f["user_id"] = id
	}
	return f
}

func (f Fields) RequestID(id string) Fields {
	f["request_id"] = id
	return f
}

func (f Fields) TraceID(id string) Fields {
	f["trace_id"] = id
	return f
}

func (f Fields) StatusCode(code int) Fields {
	f["status_code"] = code
	return f
}

func (f Fields) Method(method string) Fields {
	f["method"] = method
	return f
}

func (f Fields) URL(url string) Fields {
	f["url"] = url
	return f
}

func (f Fields) Count(n int) Fields {
	f["count"] = n
	return f
}

func (f Fields) Size(bytes int64) Fields {
	f["size_bytes"] = bytes
	return f
}

func (f Fields) Version(v string) Fields {
	f["version"] = v
	return f
}

func (f Fields) Custom(key string, value interface{}) Fields {
	f[key] = value
	return f
}

// ToLogrus converts the field set to logrus.Fields for use with a
// logrus entry.
func (f Fields) ToLogrus() logrus.Fields {
	lf := make(logrus.Fields, len(f))
	for k, v := range f {
		lf[k] = v
	}
	return lf
}

// DatabaseFields is the standard field set for a database operation.
func DatabaseFields(op, table string) Fields {
	return NewFields().Component("database").Operation(op).Resource("table", table)
}

// HTTPFields is the standard field set for an HTTP request/response.
func HTTPFields(method, url string, status int) Fields {
	return NewFields().Component("http").Method(method).URL(url).StatusCode(status)
}

// CapabilityFields is the standard field set for a capability token
// lifecycle event (issue, decode, revoke).
func CapabilityFields(op, jti string) Fields {
	return NewFields().Component("capability").Operation(op).Resource("capability", jti)
}

// AgentFields is the standard field set for an agent-scoped operation,
// optionally within a workspace.
func AgentFields(op, agentID, workspaceID string) Fields {
	f := NewFields().Component("agent").Operation(op).Resource("agent", agentID)
	if workspaceID != "" {
		f["workspace_id"] = workspaceID
	}
	return f
}

// PolicyFields is the standard field set for a policy evaluation event.
func PolicyFields(op, policyID string) Fields {
	return NewFields().Component("policy").Operation(op).Resource("policy", policyID)
}

// MetricsFields is the standard field set for a metrics update.
func MetricsFields(op, name string, value float64) Fields {
	f := NewFields().Component("metrics").Operation(op)
	f["metric_name"] = name
	f["value"] = value
	return f
}

// SecurityFields is the standard field set for a security event.
func SecurityFields(op, subject string) Fields {
	f := NewFields().Component("security").Operation(op)
	f["subject"] = subject
	return f
}

// PerformanceFields is the standard field set for a timed operation
// outcome.
func PerformanceFields(op string, duration time.Duration, success bool) Fields {
	f := NewFields().Component("performance").Operation(op).Duration(duration)
	f["success"] = success
	return f
}
