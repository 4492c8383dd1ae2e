package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

// Analyzer is the network side of a Session.
type Analyzer interface {
	AnalyzeText(ctx context.Context, text string) (*AnalysisResult, error)
	AnalyzeURL(ctx context.Context, url string) (*AnalysisResult, error)
	AnalyzeImage(ctx context.Context, name string, r io.Reader) (*AnalysisResult, error)
}

// ClientOptions configures a Client. Zero values fall back to defaults.
type ClientOptions struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logrus.Entry
}

// Client talks to the analysis service. Each method performs exactly one call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Entry
}

func NewClient(opts ClientOptions) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = logrus.NewEntry(l)
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		httpClient: httpClient,
		log:        log.WithField("component", "analysis"),
	}
}

// BaseURL returns the service root the client posts to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) AnalyzeText(ctx context.Context, text string) (*AnalysisResult, error) {
	body, err := json.Marshal(textRequest{Text: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return c.post(ctx, "/analyze/text", "application/json", bytes.NewReader(body))
}

func (c *Client) AnalyzeURL(ctx context.Context, url string) (*AnalysisResult, error) {
	body, err := json.Marshal(urlRequest{URL: url})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return c.post(ctx, "/analyze/url", "application/json", bytes.NewReader(body))
}

// AnalyzeImage uploads the bytes of r as multipart field "file" named name.
func (c *Client) AnalyzeImage(ctx context.Context, name string, r io.Reader) (*AnalysisResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(name)))
	h.Set("Content-Type", mimetype.Detect(data).String())
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}
	return c.post(ctx, "/analyze/image", mw.FormDataContentType(), &buf)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// post sends the request and interprets the reply. The body is always read as
// text first so an empty body and a malformed body stay distinguishable.
func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) (*AnalysisResult, error) {
	endpoint := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	c.log.WithField("url", endpoint).Debug("sending analysis request")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	text := string(raw)
	c.log.WithFields(logrus.Fields{
		"url":          endpoint,
		"status":       resp.StatusCode,
		"content_type": resp.Header.Get("Content-Type"),
		"body":         text,
	}).Debug("received analysis response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: text}
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyResponse
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return env.Result, nil
}
