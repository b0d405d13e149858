// Package techcombank speaks the Techcombank Business web API. Login is the
// browser flow of its Keycloak realm: fetch the login form, post the
// credentials, then exchange the authorization code (PKCE S256) for tokens.
package techcombank

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"namecheck/internal/ownercheck/bankdir"
	"namecheck/internal/ownercheck/models"
	"namecheck/internal/ownercheck/providers"
)

const (
	BankID = "Techcombank"

	DefaultIdentityBaseURL = "https://business-id.techcombank.com.vn"
	DefaultAPIBaseURL      = "https://business.techcombank.com.vn"
	DefaultClientID        = "bb-web-client"

	realmPath    = "/auth/realms/backbase/protocol/openid-connect"
	napasPath    = "/api/tcb-bb-business-banking-payments-accounts-application/client-api/v2/account-detail/napas"
	internalPath = "/api/tcb-bb-business-banking-payments-accounts-application/client-api/v2/account-detail/internal"

	xsrfCookie = "XSRF-TOKEN"

	// Page markers of the login flow.
	markerLoggedIn       = "Business Banking Web App"
	markerBadCredentials = "The username or password you entered is incorrect"
	markerSessionClosed  = "An active session was closed when you logged in"

	// maxLoginRestarts bounds restarts caused by a session open elsewhere.
	maxLoginRestarts = 1
)

// Protocol implements session.Protocol, session.Refresher and
// session.Restorer for Techcombank Business.
type Protocol struct {
	client      *http.Client
	directory   *bankdir.Directory
	identityURL string
	apiURL      string
	oauth       *oauth2.Config
}

type Option func(*Protocol)

func WithIdentityBaseURL(u string) Option {
	return func(p *Protocol) {
		p.identityURL = strings.TrimRight(u, "/")
	}
}

func WithAPIBaseURL(u string) Option {
	return func(p *Protocol) {
		p.apiURL = strings.TrimRight(u, "/")
	}
}

// New builds the protocol. The client gets a cookie jar when it has none.
func New(client *http.Client, directory *bankdir.Directory, opts ...Option) (*Protocol, error) {
	if client == nil {
		return nil, errors.New("techcombank: http client is required")
	}
	if directory == nil {
		return nil, errors.New("techcombank: bank directory is required")
	}
	p := &Protocol{
		client:      client,
		directory:   directory,
		identityURL: DefaultIdentityBaseURL,
		apiURL:      DefaultAPIBaseURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.client.Jar == nil {
		if err := p.resetCookies(); err != nil {
			return nil, err
		}
	}
	p.oauth = &oauth2.Config{
		ClientID: DefaultClientID,
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.identityURL + realmPath + "/auth",
			TokenURL:  p.identityURL + realmPath + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: p.apiURL + "/redirect",
		Scopes:      []string{"openid"},
	}
	return p, nil
}

func (p *Protocol) Bank() string {
	return BankID
}

func (p *Protocol) Authenticate(ctx context.Context, cred models.Credential, state *models.SessionState) error {
	if cred.Username == "" || cred.Password == "" {
		return providers.NewProviderError(providers.ErrorCredentialRejected, BankID, "username and password are required", nil)
	}
	if err := p.resetCookies(); err != nil {
		return providers.NewProviderError(providers.ErrorInternal, BankID, "reset cookies", err)
	}

	verifier := oauth2.GenerateVerifier()
	for restart := 0; restart <= maxLoginRestarts; restart++ {
		code, err := p.login(ctx, cred, verifier)
		if errors.Is(err, errSessionClosed) {
			continue
		}
		if err != nil {
			return err
		}

		tok, err := p.oauth.Exchange(p.oauthContext(ctx), code,
			oauth2.VerifierOption(verifier),
			oauth2.SetAuthURLParam("ui_locales", "en"),
		)
		if err != nil {
			return providers.NewProviderError(providers.ErrorTransient, BankID, "authorization code exchange failed", err)
		}
		p.applyToken(state, tok)
		if state.DeviceID == "" {
			state.DeviceID = strings.ToUpper(uuid.NewString())
		}
		return nil
	}
	return providers.NewProviderError(providers.ErrorTransient, BankID, "login kept closing an active session", errSessionClosed)
}

var errSessionClosed = errors.New("active session closed by login")

// login walks the form flow and returns the authorization code.
func (p *Protocol) login(ctx context.Context, cred models.Credential, verifier string) (string, error) {
	authURL := p.oauth.AuthCodeURL(uuid.NewString(),
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("response_mode", "fragment"),
		oauth2.SetAuthURLParam("nonce", uuid.NewString()),
		oauth2.SetAuthURLParam("ui_locales", "en-US vi"),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, authURL, nil)
	if err != nil {
		return "", providers.NewProviderError(providers.ErrorInternal, BankID, "build login page request", err)
	}
	setBrowserHeaders(req)
	resp, err := p.client.Do(req)
	if err != nil {
		return "", providers.NewProviderError(providers.ErrorTransient, BankID, "fetch login page", err)
	}
	action, err := loginFormAction(resp)
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("username", cred.Username)
	form.Set("password", cred.Password)
	form.Set("threatMetrixBrowserType", "DESKTOP_BROWSER")
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, action, strings.NewReader(form.Encode()))
	if err != nil {
		return "", providers.NewProviderError(providers.ErrorInternal, BankID, "build credential request", err)
	}
	setBrowserHeaders(req)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err = p.client.Do(req)
	if err != nil {
		return "", providers.NewProviderError(providers.ErrorTransient, BankID, "submit credentials", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", providers.NewProviderError(providers.ErrorTransient, BankID, "read login response", err)
	}
	page := string(body)

	switch {
	case strings.Contains(page, markerSessionClosed):
		return "", errSessionClosed
	case strings.Contains(page, markerBadCredentials):
		return "", providers.NewProviderError(providers.ErrorCredentialRejected, BankID, "The username or password you entered is incorrect", nil)
	}

	code := authorizationCode(resp.Request.URL)
	if code == "" || !strings.Contains(page, markerLoggedIn) {
		return "", providers.NewProviderError(providers.ErrorTransient, BankID, "unexpected login response", nil)
	}
	return code, nil
}

// loginFormAction extracts the absolute credential form target from the
// login page and closes the response.
func loginFormAction(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return "", providers.NewProviderError(providers.ErrorTransient, BankID, fmt.Sprintf("login page returned status %d", resp.StatusCode), nil)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", providers.NewProviderError(providers.ErrorTransient, BankID, "parse login page", err)
	}

	var action string
	doc.Find("form[action]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if v, ok := s.Attr("action"); ok && strings.TrimSpace(v) != "" {
			action = strings.TrimSpace(v)
			return false
		}
		return true
	})
	if action == "" {
		return "", providers.NewProviderError(providers.ErrorTransient, BankID, "login form not found", nil)
	}

	ref, err := url.Parse(action)
	if err != nil {
		return "", providers.NewProviderError(providers.ErrorTransient, BankID, "invalid login form action", err)
	}
	return resp.Request.URL.ResolveReference(ref).String(), nil
}

// authorizationCode reads the code from a fragment-mode redirect, falling
// back to the query string.
func authorizationCode(u *url.URL) string {
	if u == nil {
		return ""
	}
	if frag, err := url.ParseQuery(u.Fragment); err == nil {
		if code := frag.Get("code"); code != "" {
			return code
		}
	}
	return u.Query().Get("code")
}

// Refresh runs the refresh_token grant.
func (p *Protocol) Refresh(ctx context.Context, state *models.SessionState) error {
	if state.RefreshToken == "" {
		return providers.NewProviderError(providers.ErrorSessionExpired, BankID, "no refresh token", nil)
	}
	src := p.oauth.TokenSource(p.oauthContext(ctx), &oauth2.Token{RefreshToken: state.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		return providers.NewProviderError(providers.ErrorSessionExpired, BankID, "refresh grant failed", err)
	}
	p.applyToken(state, tok)
	return nil
}

// Restore seeds the cookie jar from a persisted session.
func (p *Protocol) Restore(state *models.SessionState) {
	byHost := map[string][]*http.Cookie{}
	for _, c := range state.Cookies {
		if c.Domain == "" {
			continue
		}
		byHost[c.Domain] = append(byHost[c.Domain], &http.Cookie{
			Name:    c.Name,
			Value:   c.Value,
			Path:    c.Path,
			Expires: c.Expires,
			Secure:  c.Secure,
		})
	}
	for host, cookies := range byHost {
		p.client.Jar.SetCookies(&url.URL{Scheme: "https", Host: host, Path: "/"}, cookies)
	}
}

type lookupResponse struct {
	AccountName     string `json:"accountName"`
	BeneficiaryName string `json:"beneficiaryName"`
	PartnerAcctNo   string `json:"partnerAcctNo"`
	Message         string `json:"message"`
}

func (p *Protocol) Lookup(ctx context.Context, state *models.SessionState, accountNumber, bankHint string) (string, error) {
	bank, err := p.directory.Resolve(bankHint)
	if err != nil {
		return "", providers.NewProviderError(providers.ErrorUnknownBank, BankID, "unknown bank "+bankHint, err)
	}

	endpoint := p.apiURL + napasPath
	payload := any(map[string]string{"bankId": bank.Napas, "type": "AccountNumber", "value": accountNumber})
	if strings.EqualFold(bank.ShortName, BankID) {
		endpoint = p.apiURL + internalPath
		payload = map[string]string{"accountNumber": accountNumber}
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", providers.NewProviderError(providers.ErrorInternal, BankID, "encode lookup request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", providers.NewProviderError(providers.ErrorInternal, BankID, "build lookup request", err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+state.AuthToken)
	req.Header.Set("X-XSRF-TOKEN", p.xsrfToken(state))

	resp, err := p.client.Do(req)
	if err != nil {
		return "", providers.NewProviderError(providers.ErrorTransient, BankID, "lookup request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", providers.NewProviderError(providers.ErrorSessionExpired, BankID, "Unauthorized", nil)
	case resp.StatusCode >= http.StatusInternalServerError:
		return "", providers.NewProviderError(providers.ErrorTransient, BankID, fmt.Sprintf("lookup failed with status %d", resp.StatusCode), nil)
	}

	var out lookupResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return "", providers.NewProviderError(providers.ErrorTransient, BankID, "malformed lookup response", err)
	}
	name := strings.TrimSpace(out.AccountName)
	if name == "" {
		name = strings.TrimSpace(out.BeneficiaryName)
	}
	if name == "" {
		msg := out.Message
		if msg == "" {
			msg = "owner not returned"
		}
		return "", providers.NewProviderError(providers.ErrorNotFound, BankID, msg, nil)
	}
	return name, nil
}

func (p *Protocol) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.client)
}

func (p *Protocol) applyToken(state *models.SessionState, tok *oauth2.Token) {
	state.AuthToken = tok.AccessToken
	if tok.RefreshToken != "" {
		state.RefreshToken = tok.RefreshToken
	}
	state.Cookies = p.exportCookies()
}

func (p *Protocol) resetCookies() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return fmt.Errorf("create cookie jar: %w", err)
	}
	p.client.Jar = jar
	return nil
}

func (p *Protocol) exportCookies() []models.Cookie {
	var out []models.Cookie
	seen := map[string]bool{}
	for _, base := range []string{p.apiURL, p.identityURL} {
		u, err := url.Parse(base)
		if err != nil {
			continue
		}
		for _, c := range p.client.Jar.Cookies(u) {
			key := u.Host + "\x00" + c.Name
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, models.Cookie{Name: c.Name, Value: c.Value, Domain: u.Host, Path: "/"})
		}
	}
	return out
}

// xsrfToken prefers the live jar and falls back to the persisted cookies.
func (p *Protocol) xsrfToken(state *models.SessionState) string {
	if u, err := url.Parse(p.apiURL); err == nil {
		for _, c := range p.client.Jar.Cookies(u) {
			if c.Name == xsrfCookie {
				return c.Value
			}
		}
	}
	for _, c := range state.Cookies {
		if c.Name == xsrfCookie {
			return c.Value
		}
	}
	return ""
}

func setBrowserHeaders(req *http.Request) {
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,vi;q=0.8")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
}
