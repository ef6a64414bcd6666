package memory

import (
	"context"
	"strconv"
	"strings"
	"sync"

	domainerrors "flow/contexts/finance-core/wallet-service/domain/errors"
	"flow/contexts/finance-core/wallet-service/ports"
	"flow/internal/shared/money"
)

// Gateway is a deterministic stand-in for the payment provider. Transfers
// succeed unless a test scripts a failure for a specific reference.
type Gateway struct {
	mu sync.Mutex

	recipientSeq  int
	transferSeq   int
	transfers     map[string]ports.TransferStatus
	failTransfers map[string]string
	unavailable   bool
}

func NewGateway() *Gateway {
	return &Gateway{
		transfers:     make(map[string]ports.TransferStatus),
		failTransfers: make(map[string]string),
	}
}

// FailTransfer scripts a terminal gateway rejection for the given reference.
func (g *Gateway) FailTransfer(reference string, reason string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failTransfers[strings.TrimSpace(reference)] = reason
}

// SetUnavailable makes every transfer call return a transient error until
// cleared, simulating a gateway outage.
func (g *Gateway) SetUnavailable(down bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.unavailable = down
}

// SettleTransfer overrides the reported status of an in-flight transfer.
func (g *Gateway) SettleTransfer(reference string, status ports.TransferStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.transfers[strings.TrimSpace(reference)] = status
}

func (g *Gateway) InitializePayment(_ context.Context, _ string, _ money.Money, reference string) (string, error) {
	return "https://pay.example.test/" + strings.TrimSpace(reference), nil
}

func (g *Gateway) VerifyPayment(_ context.Context, reference string) (ports.TransferStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if status, ok := g.transfers[strings.TrimSpace(reference)]; ok {
		return status, nil
	}
	return ports.TransferStatusSuccess, nil
}

func (g *Gateway) ResolveAccount(_ context.Context, accountNumber string, bankCode string) (string, error) {
	accountNumber = strings.TrimSpace(accountNumber)
	if len(accountNumber) != 10 {
		return "", domainerrors.ErrGatewayRejected
	}
	return "ACCOUNT HOLDER " + strings.TrimSpace(bankCode), nil
}

func (g *Gateway) ListBanks(_ context.Context) ([]ports.Bank, error) {
	return []ports.Bank{
		{Name: "First Test Bank", Code: "011"},
		{Name: "Union Test Bank", Code: "032"},
	}, nil
}

func (g *Gateway) CreateTransferRecipient(_ context.Context, _ string, _ string, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unavailable {
		return "", domainerrors.ErrGatewayUnavailable
	}
	g.recipientSeq++
	return "RCP_" + strconv.Itoa(g.recipientSeq), nil
}

func (g *Gateway) InitiateTransfer(_ context.Context, _ string, _ money.Money, reference string, _ string) (string, ports.TransferStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	reference = strings.TrimSpace(reference)
	if g.unavailable {
		return "", ports.TransferStatusPending, domainerrors.ErrGatewayUnavailable
	}
	if _, scripted := g.failTransfers[reference]; scripted {
		return "", ports.TransferStatusFailed, nil
	}
	g.transferSeq++
	if _, tracked := g.transfers[reference]; !tracked {
		g.transfers[reference] = ports.TransferStatusPending
	}
	return "TRF_" + strconv.Itoa(g.transferSeq), ports.TransferStatusPending, nil
}

func (g *Gateway) VerifyTransfer(_ context.Context, reference string) (ports.TransferStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unavailable {
		return ports.TransferStatusPending, domainerrors.ErrGatewayUnavailable
	}
	if status, ok := g.transfers[strings.TrimSpace(reference)]; ok {
		return status, nil
	}
	return ports.TransferStatusPending, nil
}

var _ ports.PaymentGateway = (*Gateway)(nil)
