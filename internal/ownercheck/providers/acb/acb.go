// Package acb speaks the ACB mobile-banking API: a JSON bearer-token login
// and an interbank account-owner lookup.
package acb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"namecheck/internal/ownercheck/bankdir"
	"namecheck/internal/ownercheck/models"
	"namecheck/internal/ownercheck/providers"
)

const (
	BankID = "ACB"

	DefaultBaseURL  = "https://apiapp.acb.com.vn"
	DefaultClientID = "iuSuHYVufIUuNIREV0FB9EoLn9kHsDbm"

	loginPath  = "/mb/auth/tokens"
	lookupPath = "/mb/legacy/ss/cs/bankservice/transfers/accounts/"

	unauthorizedMessage = "Unauthorized"
)

// Protocol implements session.Protocol for ACB.
type Protocol struct {
	client    *http.Client
	directory *bankdir.Directory
	baseURL   string
	clientID  string
}

type Option func(*Protocol)

func WithBaseURL(u string) Option {
	return func(p *Protocol) {
		p.baseURL = u
	}
}

func WithClientID(id string) Option {
	return func(p *Protocol) {
		p.clientID = id
	}
}

func New(client *http.Client, directory *bankdir.Directory, opts ...Option) (*Protocol, error) {
	if client == nil {
		return nil, errors.New("acb: http client is required")
	}
	if directory == nil {
		return nil, errors.New("acb: bank directory is required")
	}
	p := &Protocol{
		client:    client,
		directory: directory,
		baseURL:   DefaultBaseURL,
		clientID:  DefaultClientID,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Protocol) Bank() string {
	return BankID
}

type loginRequest struct {
	ClientID string `json:"clientId"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	Message      string `json:"message"`
}

func (p *Protocol) Authenticate(ctx context.Context, cred models.Credential, state *models.SessionState) error {
	if cred.Username == "" || cred.Password == "" {
		return providers.NewProviderError(providers.ErrorCredentialRejected, BankID, "username and password are required", nil)
	}
	body, err := json.Marshal(loginRequest{ClientID: p.clientID, Username: cred.Username, Password: cred.Password})
	if err != nil {
		return providers.NewProviderError(providers.ErrorInternal, BankID, "encode login request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+loginPath, bytes.NewReader(body))
	if err != nil {
		return providers.NewProviderError(providers.ErrorInternal, BankID, "build login request", err)
	}
	p.setHeaders(req, "")

	var out loginResponse
	status, err := p.do(req, &out)
	if err != nil {
		return err
	}
	if out.AccessToken != "" {
		state.AuthToken = out.AccessToken
		state.RefreshToken = out.RefreshToken
		return nil
	}

	msg := out.Message
	if msg == "" {
		msg = fmt.Sprintf("login failed with status %d", status)
	}
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden, status == http.StatusBadRequest:
		return providers.NewProviderError(providers.ErrorCredentialRejected, BankID, msg, nil)
	default:
		return providers.NewProviderError(providers.ErrorTransient, BankID, msg, nil)
	}
}

type lookupResponse struct {
	Message string `json:"message"`
	Data    *struct {
		OwnerName string `json:"ownerName"`
	} `json:"data"`
}

func (p *Protocol) Lookup(ctx context.Context, state *models.SessionState, accountNumber, bankHint string) (string, error) {
	bank, err := p.directory.Resolve(bankHint)
	if err != nil {
		return "", providers.NewProviderError(providers.ErrorUnknownBank, BankID, "unknown bank "+bankHint, err)
	}

	q := url.Values{}
	q.Set("bankCode", bank.BIN)
	q.Set("accountNumber", state.AccountNumber)
	endpoint := p.baseURL + lookupPath + url.PathEscape(accountNumber) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", providers.NewProviderError(providers.ErrorInternal, BankID, "build lookup request", err)
	}
	p.setHeaders(req, state.AuthToken)

	var out lookupResponse
	status, err := p.do(req, &out)
	if status == http.StatusUnauthorized || out.Message == unauthorizedMessage {
		return "", providers.NewProviderError(providers.ErrorSessionExpired, BankID, unauthorizedMessage, nil)
	}
	if err != nil {
		return "", err
	}
	if status >= http.StatusInternalServerError {
		return "", providers.NewProviderError(providers.ErrorTransient, BankID, fmt.Sprintf("lookup failed with status %d", status), nil)
	}
	if out.Data == nil || out.Data.OwnerName == "" {
		msg := out.Message
		if msg == "" {
			msg = "owner not returned"
		}
		return "", providers.NewProviderError(providers.ErrorNotFound, BankID, msg, nil)
	}
	return out.Data.OwnerName, nil
}

func (p *Protocol) setHeaders(req *http.Request, token string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "vi")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Sec-Fetch-Dest", "empty")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Site", "same-site")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// do sends req and decodes a JSON body into out. Transport failures and
// undecodable bodies are transient.
func (p *Protocol) do(req *http.Request, out any) (int, error) {
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, providers.NewProviderError(providers.ErrorTransient, BankID, "request failed", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, providers.NewProviderError(providers.ErrorTransient, BankID, "read response", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return resp.StatusCode, providers.NewProviderError(providers.ErrorTransient, BankID, "malformed response", err)
	}
	return resp.StatusCode, nil
}
