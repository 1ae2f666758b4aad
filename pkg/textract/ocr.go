package textract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	fileTypePDF   = 0
	fileTypeImage = 1

	layoutParsingPath = "/layout-parsing"
	ocrDateFormat     = "20060102T150405Z"
)

// OCRClient calls the hosted layout-parsing service, which OCRs scanned
// PDFs and images and returns markdown text per page.
type OCRClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

// NewOCRClient creates a client for the layout-parsing endpoint at baseURL.
func NewOCRClient(baseURL, apiKey string, timeout time.Duration) *OCRClient {
	return &OCRClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

type ocrRequest struct {
	File     string `json:"file"`
	FileType int    `json:"fileType"`

	UseDocOrientationClassify bool `json:"useDocOrientationClassify"`
	UseDocUnwarping           bool `json:"useDocUnwarping"`
	UseChartRecognition       bool `json:"useChartRecognition"`
}

type ocrResponse struct {
	Result struct {
		LayoutParsingResults []struct {
			Markdown struct {
				Text string `json:"text"`
			} `json:"markdown"`
		} `json:"layoutParsingResults"`
	} `json:"result"`
}

// Parse uploads the file as base64 and joins the per-page markdown text.
func (c *OCRClient) Parse(ctx context.Context, path string, fileType int) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	payload, err := json.Marshal(ocrRequest{
		File:     base64.StdEncoding.EncodeToString(raw),
		FileType: fileType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode OCR request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+layoutParsingPath, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build OCR request: %w", err)
	}
	req.Header.Set("Authorization", "token "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-bce-date", c.now().UTC().Format(ocrDateFormat))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read OCR response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("OCR request failed: status %d: %s", resp.StatusCode, body)
	}

	var parsed ocrResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode OCR response: %w", err)
	}

	texts := make([]string, 0, len(parsed.Result.LayoutParsingResults))
	for _, page := range parsed.Result.LayoutParsingResults {
		if page.Markdown.Text != "" {
			texts = append(texts, page.Markdown.Text)
		}
	}
	return strings.Join(texts, "\n"), nil
}
