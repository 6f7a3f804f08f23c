package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AirtelConfig configures the Airtel Money adapter.
type AirtelConfig struct {
	BaseURL       string
	ClientID      string
	ClientSecret  string
	WebhookSecret string
	Timeout       time.Duration
}

// AirtelAdapter integrates Airtel Money collections and disbursements.
// Airtel reports transaction state as two-letter codes, so the adapter
// carries its own vocabulary on top of the shared normalization rules.
type AirtelAdapter struct {
	cfg    AirtelConfig
	client *http.Client
	tokens TokenCache
	vocab  StatusTable
}

func NewAirtelAdapter(cfg AirtelConfig, tokens TokenCache) *AirtelAdapter {
	return &AirtelAdapter{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout),
		tokens: tokens,
		vocab: StatusTable{
			Exact: map[string]string{
				"ts":  StatusSuccess, // transaction success
				"tf":  StatusFailed,  // transaction failed
				"tip": StatusPending, // transaction in progress
			},
		},
	}
}

func (a *AirtelAdapter) Name() string { return "airtel" }

type airtelTokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	GrantType    string `json:"grant_type"`
}

type airtelTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

func (a *AirtelAdapter) accessToken(ctx context.Context) (string, error) {
	if token, ok := a.tokens.Get(ctx, "airtel"); ok {
		return token, nil
	}

	body, err := json.Marshal(airtelTokenRequest{
		ClientID:     a.cfg.ClientID,
		ClientSecret: a.cfg.ClientSecret,
		GrantType:    "client_credentials",
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.cfg.BaseURL+"/auth/oauth2/token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: airtel token: %v", ErrProviderCall, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: airtel token returned %d: %s", ErrProviderCall, resp.StatusCode, respBody)
	}

	var out airtelTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: airtel token decode: %v", ErrProviderCall, err)
	}

	a.tokens.Put(ctx, "airtel", out.AccessToken, time.Duration(out.ExpiresIn)*time.Second)
	return out.AccessToken, nil
}

type airtelPaymentRequest struct {
	Reference  string `json:"reference"`
	Subscriber struct {
		Country  string `json:"country"`
		Currency string `json:"currency"`
		MSISDN   string `json:"msisdn"`
	} `json:"subscriber"`
	Transaction struct {
		Amount   string `json:"amount"`
		Country  string `json:"country"`
		Currency string `json:"currency"`
		ID       string `json:"id"`
	} `json:"transaction"`
}

type airtelResponse struct {
	Data struct {
		Transaction struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"transaction"`
	} `json:"data"`
	Status struct {
		Code    string `json:"code"`
		Success bool   `json:"success"`
		Message string `json:"message"`
	} `json:"status"`
}

// Initiate pushes a collection request. Any non-2xx answer is a hard
// initiation failure; when Airtel omits the transaction id the caller's
// reference stands in as the provider reference.
func (a *AirtelAdapter) Initiate(ctx context.Context, req Request) (*InitiateResult, error) {
	token, err := a.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var payload airtelPaymentRequest
	payload.Reference = req.Description
	payload.Subscriber.Country = req.Country
	payload.Subscriber.Currency = req.Currency
	payload.Subscriber.MSISDN = req.PhoneNumber
	payload.Transaction.Amount = formatMajorUnits(req.Amount)
	payload.Transaction.Country = req.Country
	payload.Transaction.Currency = req.Currency
	payload.Transaction.ID = req.Reference

	raw, out, status, err := a.post(ctx, "/merchant/v1/payments/", token, req, payload)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("%w: airtel payments returned %d: %s", ErrProviderCall, status, out.Status.Message)
	}

	providerTxnID := out.Data.Transaction.ID
	if providerTxnID == "" {
		providerTxnID = req.Reference
	}

	return &InitiateResult{
		ProviderTxnID: providerTxnID,
		Status:        a.vocab.Normalize(out.Data.Transaction.Status),
		Raw:           raw,
	}, nil
}

// PollStatus queries a collection by transaction id.
func (a *AirtelAdapter) PollStatus(ctx context.Context, providerTxnID string) (string, error) {
	token, err := a.accessToken(ctx)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.cfg.BaseURL+"/standard/v1/payments/"+providerTxnID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: airtel status: %v", ErrProviderCall, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: airtel status returned %d: %s", ErrProviderCall, resp.StatusCode, respBody)
	}

	var out airtelResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: airtel status decode: %v", ErrProviderCall, err)
	}

	return a.vocab.Normalize(out.Data.Transaction.Status), nil
}

// VerifyWebhook checks the HMAC signature on Airtel callbacks.
func (a *AirtelAdapter) VerifyWebhook(body []byte, headers map[string]string) error {
	return verifyHMAC(body, headerValue(headers, "x-auth-signature"), a.cfg.WebhookSecret)
}

// Disburse pushes an outbound transfer. Airtel signals success through the
// nested status block, not the HTTP code, and that is the marker used here.
func (a *AirtelAdapter) Disburse(ctx context.Context, req Request) (*DisburseResult, error) {
	token, err := a.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	var payload airtelPaymentRequest
	payload.Reference = req.Description
	payload.Subscriber.Country = req.Country
	payload.Subscriber.Currency = req.Currency
	payload.Subscriber.MSISDN = req.PhoneNumber
	payload.Transaction.Amount = formatMajorUnits(req.Amount)
	payload.Transaction.Country = req.Country
	payload.Transaction.Currency = req.Currency
	payload.Transaction.ID = req.Reference

	raw, out, _, err := a.post(ctx, "/standard/v1/disbursements/", token, req, payload)
	if err != nil {
		return nil, err
	}

	providerRef := out.Data.Transaction.ID
	if providerRef == "" {
		providerRef = req.Reference
	}

	return &DisburseResult{
		Success:     out.Status.Success || out.Status.Code == "200",
		ProviderRef: providerRef,
		Raw:         raw,
	}, nil
}

func (a *AirtelAdapter) post(ctx context.Context, path, token string, req Request, payload interface{}) (map[string]interface{}, *airtelResponse, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, 0, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, nil, 0, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Country", req.Country)
	httpReq.Header.Set("X-Currency", req.Currency)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("%w: airtel %s: %v", ErrProviderCall, path, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	var out airtelResponse
	_ = json.Unmarshal(respBody, &out)

	return decodeRaw(respBody), &out, resp.StatusCode, nil
}

// NormalizeStatus maps Airtel status codes onto the internal outcome.
func (a *AirtelAdapter) NormalizeStatus(status string) string {
	return a.vocab.Normalize(status)
}
