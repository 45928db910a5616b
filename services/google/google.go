// Package google checks Google sign-in ID tokens.
package google

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/trezcool/libdesk/core"
)

const defaultBaseURL = "https://oauth2.googleapis.com"

var ErrInvalidToken = core.NewAuthError("Invalid Google token")

type tokenInfo struct {
	Audience      string      `json:"aud"`
	Email         string      `json:"email"`
	EmailVerified interface{} `json:"email_verified"` // "true" or true depending on the endpoint version
	Error         string      `json:"error_description"`
}

func (ti tokenInfo) verified() bool {
	return strings.EqualFold(fmt.Sprint(ti.EmailVerified), "true")
}

// Verifier asks Google's tokeninfo endpoint whether an ID token is valid and meant for this app.
type Verifier struct {
	client   *resty.Client
	clientID string
}

func NewVerifier(conf *core.Config) *Verifier {
	return NewVerifierWithURL(defaultBaseURL, conf.GoogleClientID)
}

func NewVerifierWithURL(baseURL, clientID string) *Verifier {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetHeader("Accept", "application/json")
	return &Verifier{client: client, clientID: clientID}
}

// Verify returns the verified email the token was issued for.
func (v *Verifier) Verify(ctx context.Context, idToken string) (string, error) {
	if v.clientID == "" {
		return "", errors.New("google client ID not configured")
	}

	var info tokenInfo
	resp, err := v.client.R().
		SetContext(ctx).
		SetQueryParam("id_token", idToken).
		SetResult(&info).
		SetError(&info).
		Get("/tokeninfo")
	if err != nil {
		return "", errors.Wrap(err, "calling google tokeninfo")
	}
	switch {
	case resp.StatusCode() == http.StatusBadRequest:
		return "", ErrInvalidToken
	case resp.IsError():
		return "", errors.Errorf("google tokeninfo: status %d", resp.StatusCode())
	}

	if info.Audience != v.clientID || info.Email == "" || !info.verified() {
		return "", ErrInvalidToken
	}
	return strings.ToLower(info.Email), nil
}
