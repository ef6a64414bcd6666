// Package paystack implements the payment gateway port against the Paystack
// HTTP API. Amounts cross the boundary in minor units (kobo); no call ever
// assumes a transfer settled synchronously.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	domainerrors "flow/contexts/finance-core/wallet-service/domain/errors"
	walletports "flow/contexts/finance-core/wallet-service/ports"
	"flow/internal/shared/money"
)

const defaultBaseURL = "https://api.paystack.co"

type Client struct {
	BaseURL    string
	SecretKey  string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

func NewClient(baseURL string, secretKey string, logger *slog.Logger) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		SecretKey:  secretKey,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
		Logger:     logger,
	}
}

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) InitializePayment(ctx context.Context, email string, amount money.Money, reference string) (string, error) {
	var data struct {
		AuthorizationURL string `json:"authorization_url"`
	}
	err := c.do(ctx, http.MethodPost, "/transaction/initialize", map[string]any{
		"email":     email,
		"amount":    amount.MinorUnits(),
		"currency":  amount.Currency,
		"reference": reference,
	}, &data)
	if err != nil {
		return "", err
	}
	c.logCall("gateway_initialize_payment", "reference", reference, "amount", amount.StringAmount())
	return data.AuthorizationURL, nil
}

func (c *Client) VerifyPayment(ctx context.Context, reference string) (walletports.TransferStatus, error) {
	var data struct {
		Status string `json:"status"`
	}
	err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(strings.TrimSpace(reference)), nil, &data)
	if err != nil {
		return walletports.TransferStatusPending, err
	}
	c.logCall("gateway_verify_payment", "reference", reference, "status", data.Status)
	return mapTransferStatus(data.Status), nil
}

func (c *Client) ResolveAccount(ctx context.Context, accountNumber string, bankCode string) (string, error) {
	var data struct {
		AccountName string `json:"account_name"`
	}
	query := url.Values{}
	query.Set("account_number", strings.TrimSpace(accountNumber))
	query.Set("bank_code", strings.TrimSpace(bankCode))
	err := c.do(ctx, http.MethodGet, "/bank/resolve?"+query.Encode(), nil, &data)
	if err != nil {
		return "", err
	}
	c.logCall("gateway_resolve_account", "bank_code", bankCode)
	return data.AccountName, nil
}

func (c *Client) ListBanks(ctx context.Context) ([]walletports.Bank, error) {
	var data []struct {
		Name string `json:"name"`
		Code string `json:"code"`
	}
	if err := c.do(ctx, http.MethodGet, "/bank?currency="+money.DefaultCurrency, nil, &data); err != nil {
		return nil, err
	}
	banks := make([]walletports.Bank, 0, len(data))
	for _, bank := range data {
		banks = append(banks, walletports.Bank{Name: bank.Name, Code: bank.Code})
	}
	c.logCall("gateway_list_banks", "bank_count", len(banks))
	return banks, nil
}

func (c *Client) CreateTransferRecipient(ctx context.Context, name string, accountNumber string, bankCode string) (string, error) {
	var data struct {
		RecipientCode string `json:"recipient_code"`
	}
	err := c.do(ctx, http.MethodPost, "/transferrecipient", map[string]any{
		"type":           "nuban",
		"name":           name,
		"account_number": accountNumber,
		"bank_code":      bankCode,
		"currency":       money.DefaultCurrency,
	}, &data)
	if err != nil {
		return "", err
	}
	c.logCall("gateway_create_recipient", "recipient_code", data.RecipientCode)
	return data.RecipientCode, nil
}

func (c *Client) InitiateTransfer(ctx context.Context, recipientCode string, amount money.Money, reference string, reason string) (string, walletports.TransferStatus, error) {
	var data struct {
		TransferCode string `json:"transfer_code"`
		Status       string `json:"status"`
	}
	err := c.do(ctx, http.MethodPost, "/transfer", map[string]any{
		"source":    "balance",
		"amount":    amount.MinorUnits(),
		"currency":  amount.Currency,
		"recipient": recipientCode,
		"reference": reference,
		"reason":    reason,
	}, &data)
	if err != nil {
		return "", walletports.TransferStatusPending, err
	}
	c.logCall("gateway_initiate_transfer",
		"reference", reference,
		"transfer_code", data.TransferCode,
		"status", data.Status,
	)
	return data.TransferCode, mapTransferStatus(data.Status), nil
}

func (c *Client) VerifyTransfer(ctx context.Context, reference string) (walletports.TransferStatus, error) {
	var data struct {
		Status string `json:"status"`
	}
	err := c.do(ctx, http.MethodGet, "/transfer/verify/"+url.PathEscape(strings.TrimSpace(reference)), nil, &data)
	if err != nil {
		return walletports.TransferStatusPending, err
	}
	c.logCall("gateway_verify_transfer", "reference", reference, "status", data.Status)
	return mapTransferStatus(data.Status), nil
}

func (c *Client) do(ctx context.Context, method string, endpoint string, body any, out any) error {
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+endpoint, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)

	resp, err := client.Do(req)
	if err != nil {
		c.logFailure("gateway_request_failed", method, endpoint, err)
		return domainerrors.ErrGatewayUnavailable
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domainerrors.ErrGatewayUnavailable
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		c.logStatus("gateway_server_error", method, endpoint, resp.StatusCode)
		return domainerrors.ErrGatewayUnavailable
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		c.logStatus("gateway_decode_failed", method, endpoint, resp.StatusCode)
		return domainerrors.ErrGatewayUnavailable
	}
	if resp.StatusCode >= http.StatusBadRequest || !envelope.Status {
		if c.Logger != nil {
			c.Logger.Warn("paystack call rejected",
				"event", "gateway_rejected",
				"module", "internal/platform/paystack",
				"layer", "platform",
				"method", method,
				"endpoint", endpoint,
				"status_code", resp.StatusCode,
				"message", envelope.Message,
			)
		}
		return domainerrors.ErrGatewayRejected
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return domainerrors.ErrGatewayUnavailable
		}
	}
	return nil
}

func (c *Client) logCall(event string, attrs ...any) {
	if c.Logger == nil {
		return
	}
	fields := append([]any{
		"event", event,
		"module", "internal/platform/paystack",
		"layer", "platform",
	}, attrs...)
	c.Logger.Info("paystack call completed", fields...)
}

func (c *Client) logFailure(event string, method string, endpoint string, err error) {
	if c.Logger == nil {
		return
	}
	c.Logger.Error("paystack call failed",
		"event", event,
		"module", "internal/platform/paystack",
		"layer", "platform",
		"method", method,
		"endpoint", endpoint,
		"error", err.Error(),
	)
}

func (c *Client) logStatus(event string, method string, endpoint string, statusCode int) {
	if c.Logger == nil {
		return
	}
	c.Logger.Error("paystack call failed",
		"event", event,
		"module", "internal/platform/paystack",
		"layer", "platform",
		"method", method,
		"endpoint", endpoint,
		"status_code", statusCode,
	)
}

func mapTransferStatus(status string) walletports.TransferStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success":
		return walletports.TransferStatusSuccess
	case "failed", "reversed", "abandoned":
		return walletports.TransferStatusFailed
	default:
		return walletports.TransferStatusPending
	}
}

var _ walletports.PaymentGateway = (*Client)(nil)
