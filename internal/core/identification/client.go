package identification

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

	"go.uber.org/zap"

	"github.com/agenthands/plantcare/internal/config"
	"github.com/agenthands/plantcare/internal/core/model"
)

const identificationsPath = "/v1/identifications"

// Response is the body returned by the taxonomy service.
type Response struct {
	Results []Result `json:"results"`
}

type Result struct {
	Taxon Taxon   `json:"taxon"`
	Score float64 `json:"score"`
}

type Taxon struct {
	Name                string  `json:"name"`
	PreferredCommonName *string `json:"preferred_common_name"`
}

// Client asks the taxonomy service which species is in a photo. It never
// fails: any problem yields the unknown-species candidate.
type Client struct {
	Settings config.Provider
	HTTP     *http.Client
	Logger   *zap.Logger
	Timeout  time.Duration
}

func NewClient(settings config.Provider, httpClient *http.Client, logger *zap.Logger, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		Settings: settings,
		HTTP:     httpClient,
		Logger:   logger,
		Timeout:  timeout,
	}
}

// Unknown is the candidate used whenever identification fails.
func Unknown(msgs config.Messages) model.IdentificationCandidate {
	return model.IdentificationCandidate{
		CommonName:      msgs.UnknownSpecies,
		ScientificName:  config.UnknownScientificName,
		ConfidenceScore: 0,
	}
}

func (c *Client) Identify(ctx context.Context, image []byte) model.Identification {
	settings, err := c.Settings.Current(ctx)
	if err != nil {
		return c.fallback(config.MessagesFor(config.DefaultLocale), fmt.Errorf("failed to read settings: %w", err))
	}
	msgs := config.MessagesFor(settings.Locale)

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	resp, err := c.send(ctx, settings.Identification, image)
	if err != nil {
		return c.fallback(msgs, err)
	}
	if len(resp.Results) == 0 {
		return c.fallback(msgs, fmt.Errorf("no identification results"))
	}

	top := resp.Results[0]
	name := top.Taxon.Name
	if top.Taxon.PreferredCommonName != nil && *top.Taxon.PreferredCommonName != "" {
		name = *top.Taxon.PreferredCommonName
	}

	score := top.Score
	if !model.ValidConfidence(score) {
		c.Logger.Warn("Identification score out of range, clamping", zap.Float64("score", score))
		score = model.ClampConfidence(score)
	}

	return model.Identification{
		Candidate: model.IdentificationCandidate{
			CommonName:      name,
			ScientificName:  top.Taxon.Name,
			ConfidenceScore: score,
		},
		Status: model.StepOK,
	}
}

func (c *Client) fallback(msgs config.Messages, err error) model.Identification {
	c.Logger.Warn("Species identification failed, using unknown species",
		zap.String("step", "identification"),
		zap.Error(err))
	return model.Identification{
		Candidate: Unknown(msgs),
		Status:    model.StepDegraded,
		Err:       err,
	}
}

func (c *Client) send(ctx context.Context, s config.IdentificationSettings, image []byte) (*Response, error) {
	body, contentType, err := multipartImage(image)
	if err != nil {
		return nil, err
	}

	url := strings.TrimRight(s.APIURL, "/") + identificationsPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+s.Token)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identification request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("identification status %d: %s", res.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var out Response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode identification response: %w", err)
	}
	return &out, nil
}

func multipartImage(image []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	mimeType := http.DetectContentType(image)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="plant`+extension(mimeType)+`"`)
	h.Set("Content-Type", mimeType)

	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("failed to write image part: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func extension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ".jpg"
}
