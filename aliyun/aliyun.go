// Package aliyun updates Aliyun DNS records through the signed RPC API.
package aliyun

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultEndpoint is the Aliyun DNS RPC endpoint.
	DefaultEndpoint = "http://alidns.aliyuncs.com/"

	// DefaultTimeout bounds each API request made with the default HTTP client.
	DefaultTimeout = 5 * time.Second

	apiVersion       = "2015-01-09"
	signatureMethod  = "HMAC-SHA1"
	signatureVersion = "1.0"
	actionUpdate     = "UpdateDomainRecord"

	maxResponseSize = 64 << 10
)

// APIError is returned when the API responds with an error message.
type APIError struct {
	Code      string
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("aliyun API error %s: %s (request ID %s)", e.Code, e.Message, e.RequestID)
	}
	return "aliyun API error: " + e.Message
}

// Client updates records of one domain record set.
type Client struct {
	// AccessKeyID is the RAM access key ID.
	AccessKeyID string

	// AccessKeySecret is the RAM access key secret.
	AccessKeySecret string

	// RR is the host record, e.g. "www" or "@".
	RR string

	// Endpoint is the API endpoint. Defaults to [DefaultEndpoint].
	Endpoint string

	// HTTPClient defaults to a client with [DefaultTimeout].
	HTTPClient *http.Client

	// Now defaults to [time.Now].
	Now func() time.Time
}

var defaultHTTPClient = &http.Client{Timeout: DefaultTimeout}

// UpdateRecord points the record with the given ID at addr.
// IPv4 and IPv4-mapped IPv6 addresses update an A record, other IPv6
// addresses an AAAA record.
func (c *Client) UpdateRecord(ctx context.Context, recordID uint64, addr netip.Addr) error {
	addr = addr.Unmap()
	rawURL := c.signedURL(recordID, addr)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "curl")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = defaultHTTPClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	return parseResponse(resp.StatusCode, body)
}

type response struct {
	RequestID string `json:"RequestId"`
	RecordID  string `json:"RecordId"`
	Code      string `json:"Code"`
	Message   string `json:"Message"`
}

func parseResponse(statusCode int, body []byte) error {
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		if statusCode != http.StatusOK {
			return fmt.Errorf("unexpected HTTP status %d", statusCode)
		}
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if r.Message != "" {
		return &APIError{Code: r.Code, Message: r.Message, RequestID: r.RequestID}
	}
	if statusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status %d", statusCode)
	}
	return nil
}

// RecordType returns the DNS record type for addr.
func RecordType(addr netip.Addr) string {
	if addr.Unmap().Is4() {
		return "A"
	}
	return "AAAA"
}

// signedURL expects an unmapped addr.
func (c *Client) signedURL(recordID uint64, addr netip.Addr) string {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	t := now().UTC()

	params := [][2]string{
		{"AccessKeyId", c.AccessKeyID},
		{"Action", actionUpdate},
		{"Format", "JSON"},
		{"RR", c.RR},
		{"RecordId", strconv.FormatUint(recordID, 10)},
		{"SignatureMethod", signatureMethod},
		{"SignatureNonce", strconv.FormatInt(t.UnixMilli(), 10)},
		{"SignatureVersion", signatureVersion},
		{"Timestamp", t.Format("2006-01-02T15:04:05Z")},
		{"Type", RecordType(addr)},
		{"Value", addr.String()},
		{"Version", apiVersion},
	}

	query := canonicalQuery(params)
	signature := sign(c.AccessKeySecret, http.MethodGet, query)

	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return endpoint + "?" + query + "&Signature=" + percentEncode(signature)
}

// canonicalQuery sorts the parameters by key and joins them with
// percent-encoded keys and values.
func canonicalQuery(params [][2]string) string {
	params = slices.Clone(params)
	slices.SortFunc(params, func(a, b [2]string) int {
		return strings.Compare(a[0], b[0])
	})

	var sb strings.Builder
	for i, p := range params {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(percentEncode(p[0]))
		sb.WriteByte('=')
		sb.WriteString(percentEncode(p[1]))
	}
	return sb.String()
}

// sign returns the base64 HMAC-SHA1 signature of the canonical query.
func sign(secret, method, query string) string {
	stringToSign := method + "&" + percentEncode("/") + "&" + percentEncode(query)
	mac := hmac.New(sha1.New, []byte(secret+"&"))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// percentEncode encodes s per RFC 3986: everything but unreserved
// characters is escaped, and spaces become %20.
func percentEncode(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
