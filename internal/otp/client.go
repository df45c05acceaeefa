// Package otp implements the HTTP client of the external identity verifier.
// Only the boolean verification result matters to this service; the delivery
// transport behind the verifier is the collaborator's concern.
package otp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

type Client struct {
	apiURL     string
	httpClient *http.Client
}

// NewClient creates a verifier client with the given request timeout.
func NewClient(apiURL string, timeout time.Duration) *Client {
	return &Client{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type sendCodeRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type verifyRequest struct {
	PhoneNumber string `json:"phone_number"`
	Code        string `json:"code"`
}

type verifyResponse struct {
	Verified bool `json:"verified"`
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.apiURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New("unexpected status: " + resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// SendCode asks the verifier to deliver a one-time code to the phone.
func (c *Client) SendCode(ctx context.Context, phoneNumber string) error {
	return c.post(ctx, "/otp/send", sendCodeRequest{PhoneNumber: phoneNumber}, nil)
}

// Verify checks the code entered by the user against the verifier.
func (c *Client) Verify(ctx context.Context, phoneNumber, code string) (bool, error) {
	var out verifyResponse
	if err := c.post(ctx, "/otp/verify", verifyRequest{PhoneNumber: phoneNumber, Code: code}, &out); err != nil {
		return false, err
	}
	return out.Verified, nil
}
