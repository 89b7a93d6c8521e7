package cageots

import (
	"bytes"
	"cageots-konnector/internal/assert"
	"cageots-konnector/internal/telemetry"
	"cageots-konnector/lib/restyutil"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"
)

const (
	report_client_authenticate  = "client.authenticate"
	report_client_order_history = "client.order-history"
	report_client_download      = "client.download"
)

const (
	loginPath        = "/authentification"
	orderHistoryPath = "/historique-des-commandes"

	defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
)

type ClientOptions struct {
	// BaseUrl defaults to DEFAULT_BASE_URL.
	BaseUrl string
	// Timeout of a single request, defaults to 30 seconds.
	Timeout time.Duration
	// RequestsPerSecond limits the request rate, 0 disables the limit.
	RequestsPerSecond float64
	// CloudflareBypass wraps the transport to look like a regular browser.
	CloudflareBypass bool
	UserAgent        string
	// InstrumentOutput receives full dumps of every HTTP exchange when debug
	// logging is enabled, it may be nil.
	InstrumentOutput restyutil.InstrumentOutput
}

// Client is the session with the vendor site. It holds the cookies of one
// login and must not be shared between runs.
type Client struct {
	baseUrl *url.URL
	http    *resty.Client
	tel     telemetry.API
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("cageots", tel)

	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = DEFAULT_BASE_URL
	}
	baseUrl = strings.TrimRight(baseUrl, "/")
	parsedBaseUrl, err := url.Parse(baseUrl)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second * 30
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("user-agent", userAgent)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsedBaseUrl.Hostname()))
	httpClient.SetTimeout(timeout)

	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel)
	restyutil.InstrumentClient(httpClient, otel.Tracer("cageots.client"), opts.InstrumentOutput)

	return &Client{
		baseUrl: parsedBaseUrl,
		http:    httpClient,
		tel:     tel,
	}, nil
}

// Authenticate submits the login form. It returns an *AuthError when the
// site refused the credentials and a *TransportError when the site could not
// be reached.
func (c *Client) Authenticate(ctx context.Context, username, password string) error {
	res, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"email":       username,
			"passwd":      password,
			"back":        "",
			"SubmitLogin": "",
		}).
		Post(loginPath)
	if err != nil {
		c.tel.ReportBroken(
			report_client_authenticate,
			fmt.Errorf("login request: %w", err),
		)
		return &TransportError{Op: "login request", Err: err}
	}

	reason, marker, ok := ClassifyLoginResponse(res.String())
	if ok {
		c.tel.ReportDebug("logged in", username)
		return nil
	}

	if reason == AUTH_UNKNOWN {
		// none of the known markers were found, the login page has most
		// likely changed.
		c.tel.ReportBroken(
			report_client_authenticate,
			fmt.Errorf("unrecognized login response"),
			res.Status(),
		)
	} else {
		c.tel.ReportWarning(
			report_client_authenticate,
			reason.String(),
			marker,
		)
	}
	return &AuthError{Reason: reason, Marker: marker}
}

// OrderHistoryPage is the parsed listing page with the url it ended up being
// served from.
type OrderHistoryPage struct {
	Url *url.URL
	Doc *goquery.Document
}

// OrderHistory fetches the order history listing of the logged in account.
func (c *Client) OrderHistory(ctx context.Context) (OrderHistoryPage, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(orderHistoryPath)
	if err != nil {
		c.tel.ReportBroken(
			report_client_order_history,
			fmt.Errorf("fetch: %w", err),
		)
		return OrderHistoryPage{}, &TransportError{Op: "fetch order history", Err: err}
	}
	if res.IsError() {
		err := fmt.Errorf("unexpected status %s", res.Status())
		c.tel.ReportBroken(report_client_order_history, err)
		return OrderHistoryPage{}, &TransportError{Op: "fetch order history", Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		c.tel.ReportBroken(
			report_client_order_history,
			fmt.Errorf("parse: %w", err),
		)
		return OrderHistoryPage{}, &TransportError{Op: "parse order history", Err: err}
	}

	pageUrl := c.baseUrl.JoinPath(orderHistoryPath)
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		pageUrl = res.RawResponse.Request.URL
	}

	return OrderHistoryPage{Url: pageUrl, Doc: doc}, nil
}

// Fetch downloads the file behind link with the session cookies.
func (c *Client) Fetch(ctx context.Context, link string) ([]byte, error) {
	c.tel.ReportDebug(report_client_download, link)

	res, err := c.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		c.tel.ReportBroken(
			report_client_download,
			fmt.Errorf("fetch: %w", err),
			link,
		)
		return nil, &TransportError{Op: "download invoice", Err: err}
	}
	if res.IsError() {
		err := fmt.Errorf("unexpected status %s", res.Status())
		c.tel.ReportBroken(report_client_download, err, link)
		return nil, &TransportError{Op: "download invoice", Err: err}
	}

	contentType := res.Header().Get("content-type")
	if !strings.Contains(contentType, "pdf") {
		c.tel.ReportWarning(
			report_client_download,
			fmt.Errorf("unexpected content type %q", contentType),
			link,
		)
	}

	return res.Body(), nil
}
