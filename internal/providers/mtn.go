package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// MTNConfig configures the MTN MoMo adapter. APIUser/APIKey drive the OAuth
// client-credentials exchange; the subscription key is the static product
// header MoMo requires on every call.
type MTNConfig struct {
	BaseURL         string
	SubscriptionKey string
	APIUser         string
	APIKey          string
	TargetEnv       string
	CallbackURL     string
	WebhookSecret   string
	Timeout         time.Duration
}

// MTNAdapter integrates MTN Mobile Money collections and disbursements.
type MTNAdapter struct {
	cfg    MTNConfig
	client *http.Client
	tokens TokenCache
	vocab  StatusTable
}

func NewMTNAdapter(cfg MTNConfig, tokens TokenCache) *MTNAdapter {
	if cfg.TargetEnv == "" {
		cfg.TargetEnv = "sandbox"
	}
	return &MTNAdapter{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout),
		tokens: tokens,
		vocab:  StatusTable{},
	}
}

func (a *MTNAdapter) Name() string { return "mtn" }

type mtnTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// accessToken returns a cached collection token or fetches a fresh one.
// The cache applies the safety margin so refresh happens before expiry.
func (a *MTNAdapter) accessToken(ctx context.Context, product string) (string, error) {
	cacheKey := "mtn:" + product
	if token, ok := a.tokens.Get(ctx, cacheKey); ok {
		return token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/"+product+"/token/", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(a.cfg.APIUser, a.cfg.APIKey)
	req.Header.Set("Ocp-Apim-Subscription-Key", a.cfg.SubscriptionKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: mtn token: %v", ErrProviderCall, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: mtn token returned %d: %s", ErrProviderCall, resp.StatusCode, body)
	}

	var out mtnTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: mtn token decode: %v", ErrProviderCall, err)
	}

	a.tokens.Put(ctx, cacheKey, out.AccessToken, time.Duration(out.ExpiresIn)*time.Second)
	return out.AccessToken, nil
}

type mtnParty struct {
	PartyIDType string `json:"partyIdType"`
	PartyID     string `json:"partyId"`
}

type mtnPaymentRequest struct {
	Amount       string    `json:"amount"`
	Currency     string    `json:"currency"`
	ExternalID   string    `json:"externalId"`
	Payer        *mtnParty `json:"payer,omitempty"`
	Payee        *mtnParty `json:"payee,omitempty"`
	PayerMessage string    `json:"payerMessage,omitempty"`
	PayeeNote    string    `json:"payeeNote,omitempty"`
}

// Initiate submits a request-to-pay. MoMo answers 202 with an empty body;
// the provider reference is the X-Reference-Id we generated for the call.
func (a *MTNAdapter) Initiate(ctx context.Context, req Request) (*InitiateResult, error) {
	token, err := a.accessToken(ctx, "collection")
	if err != nil {
		return nil, err
	}

	referenceID := uuid.NewString()
	payload := mtnPaymentRequest{
		Amount:       formatMajorUnits(req.Amount),
		Currency:     req.Currency,
		ExternalID:   req.Reference,
		Payer:        &mtnParty{PartyIDType: "MSISDN", PartyID: req.PhoneNumber},
		PayerMessage: req.Description,
		PayeeNote:    req.Description,
	}

	raw, status, err := a.post(ctx, "/collection/v1_0/requesttopay", token, referenceID, payload)
	if err != nil {
		return nil, err
	}
	if status != http.StatusAccepted {
		return nil, fmt.Errorf("%w: mtn requesttopay returned %d", ErrProviderCall, status)
	}

	return &InitiateResult{
		ProviderTxnID: referenceID,
		Status:        StatusPending,
		Raw:           raw,
	}, nil
}

// PollStatus queries a request-to-pay by its provider reference.
func (a *MTNAdapter) PollStatus(ctx context.Context, providerTxnID string) (string, error) {
	token, err := a.accessToken(ctx, "collection")
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.cfg.BaseURL+"/collection/v1_0/requesttopay/"+providerTxnID, nil)
	if err != nil {
		return "", err
	}
	a.setCommonHeaders(req, token, "")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: mtn status: %v", ErrProviderCall, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: mtn status returned %d: %s", ErrProviderCall, resp.StatusCode, body)
	}

	var out struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: mtn status decode: %v", ErrProviderCall, err)
	}

	return a.vocab.Normalize(out.Status), nil
}

// VerifyWebhook checks the HMAC signature MoMo callbacks are configured
// with. Missing signatures are rejected.
func (a *MTNAdapter) VerifyWebhook(body []byte, headers map[string]string) error {
	return verifyHMAC(body, headerValue(headers, "x-momo-signature"), a.cfg.WebhookSecret)
}

// Disburse pushes an outbound transfer. Success for MoMo is a bare 202.
func (a *MTNAdapter) Disburse(ctx context.Context, req Request) (*DisburseResult, error) {
	token, err := a.accessToken(ctx, "disbursement")
	if err != nil {
		return nil, err
	}

	referenceID := uuid.NewString()
	payload := mtnPaymentRequest{
		Amount:     formatMajorUnits(req.Amount),
		Currency:   req.Currency,
		ExternalID: req.Reference,
		Payee:      &mtnParty{PartyIDType: "MSISDN", PartyID: req.PhoneNumber},
		PayeeNote:  req.Description,
	}

	raw, status, err := a.post(ctx, "/disbursement/v1_0/transfer", token, referenceID, payload)
	if err != nil {
		return nil, err
	}

	return &DisburseResult{
		Success:     status == http.StatusAccepted,
		ProviderRef: referenceID,
		Raw:         raw,
	}, nil
}

func (a *MTNAdapter) post(ctx context.Context, path, token, referenceID string, payload interface{}) (map[string]interface{}, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	a.setCommonHeaders(req, token, referenceID)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: mtn %s: %v", ErrProviderCall, path, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	return decodeRaw(respBody), resp.StatusCode, nil
}

func (a *MTNAdapter) setCommonHeaders(req *http.Request, token, referenceID string) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Ocp-Apim-Subscription-Key", a.cfg.SubscriptionKey)
	req.Header.Set("X-Target-Environment", a.cfg.TargetEnv)
	req.Header.Set("Content-Type", "application/json")
	if referenceID != "" {
		req.Header.Set("X-Reference-Id", referenceID)
	}
	if a.cfg.CallbackURL != "" {
		req.Header.Set("X-Callback-Url", a.cfg.CallbackURL)
	}
}

// NormalizeStatus maps MoMo status wording onto the internal outcome.
func (a *MTNAdapter) NormalizeStatus(status string) string {
	return a.vocab.Normalize(status)
}
