// Package sms delivers verification codes through the Aligo messaging
// gateway. Every send runs the vendor's two-step protocol: create a
// short-lived token, then post the message with it.
package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/town-square/api-go/apperr"
)

type Config struct {
	BaseURL string
	APIKey  string
	UserID  string
	Sender  string
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// vendorResponse is the envelope every Aligo endpoint answers with. A
// non-zero code is a hard failure regardless of the HTTP status.
type vendorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Token   string `json:"token"`
}

func (c *Client) Send(ctx context.Context, phone, code string) error {
	token, err := c.createToken(ctx)
	if err != nil {
		return err
	}

	form := url.Values{
		"apikey":   {c.cfg.APIKey},
		"userid":   {c.cfg.UserID},
		"token":    {token},
		"sender":   {c.cfg.Sender},
		"receiver": {phone},
		"message":  {fmt.Sprintf("Verification code: %s", code)},
	}

	_, err = c.post(ctx, "/akv10/sms/send/", form)
	return err
}

func (c *Client) createToken(ctx context.Context) (string, error) {
	form := url.Values{
		"apikey": {c.cfg.APIKey},
		"userid": {c.cfg.UserID},
	}

	resp, err := c.post(ctx, "/akv10/token/create/30/s/", form)
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", apperr.Vendor(fmt.Errorf("sms: token response carried no token"))
	}
	return resp.Token, nil
}

func (c *Client) post(ctx context.Context, path string, form url.Values) (*vendorResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, apperr.Vendor(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Vendor(err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, apperr.Vendor(fmt.Errorf("sms: %s answered %d", path, res.StatusCode))
	}

	var body vendorResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, apperr.Vendor(err)
	}
	if body.Code != 0 {
		return nil, apperr.Vendor(fmt.Errorf("sms: %s failed with code %d: %s", path, body.Code, body.Message))
	}

	return &body, nil
}
