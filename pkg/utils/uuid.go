package utils

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateInvoiceNo builds an invoice number of the form
// PREFIX-BRANCH-YYYYMMDD-XXXXXXXX. The branch code is optional.
func GenerateInvoiceNo(prefix, branchCode string, at time.Time) string {
	parts := []string{}
	if prefix != "" {
		parts = append(parts, strings.ToUpper(prefix))
	}
	if branchCode != "" {
		parts = append(parts, strings.ToUpper(branchCode))
	}
	parts = append(parts, at.Format("20060102"), strings.ToUpper(uuid.New().String()[:8]))
	return strings.Join(parts, "-")
}

// GenerateRequestID returns an id for correlating log lines of one request.
func GenerateRequestID() string {
	return uuid.New().String()
}
