package payment

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateResult is the gateway's answer to a payment creation: the id to
// execute against later and the URL the buyer approves at.
type CreateResult struct {
	ExternalID  string
	ApprovalURL string
}

// Gateway abstracts the external authorization service.
type Gateway interface {
	CreatePayment(amount decimal.Decimal, currency, returnURL, cancelURL string) (*CreateResult, error)
	ExecutePayment(externalID, payerID string) error
}

// SandboxGateway approves everything deterministically, without network
// calls. Payer ids starting with FAIL are declined, which is how the
// failure paths get exercised in development.
type SandboxGateway struct {
	BaseURL string
}

func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{BaseURL: "https://sandbox.gateway.local"}
}

func (g *SandboxGateway) CreatePayment(amount decimal.Decimal, currency, returnURL, cancelURL string) (*CreateResult, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("gateway: amount must be positive, got %s", amount)
	}
	id := "PAY-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
	return &CreateResult{
		ExternalID:  id,
		ApprovalURL: fmt.Sprintf("%s/approve?paymentId=%s&return=%s&cancel=%s", g.BaseURL, id, returnURL, cancelURL),
	}, nil
}

func (g *SandboxGateway) ExecutePayment(externalID, payerID string) error {
	if payerID == "" {
		return fmt.Errorf("gateway: missing payer id")
	}
	if strings.HasPrefix(payerID, "FAIL") {
		return fmt.Errorf("gateway: payment %s declined", externalID)
	}
	return nil
}
