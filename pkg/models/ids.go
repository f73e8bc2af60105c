package models

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

func hexID(prefix string, n int) string {
	u := uuid.New()
	return prefix + strings.ToUpper(hex.EncodeToString(u[:]))[:n]
}

// Opaque public identifiers. Formats are fixed for external compatibility.
func NewOrderID() string        { return hexID("ORD", 8) }
func NewReturnID() string       { return hexID("RET", 8) }
func NewTicketID() string       { return hexID("TK", 8) }
func NewVendorTicketID() string { return hexID("VT", 8) }
func NewTrackingID() string     { return hexID("TRK", 10) }
func NewAuditID() string        { return hexID("IA", 8) }
