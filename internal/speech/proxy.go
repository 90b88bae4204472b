// Package speech fronts the text-to-speech vendor so the subscription
// key never leaves the server. The proxy accepts plain text, issues the
// vendor request with the configured voice profile, and relays the audio
// stream or the vendor's error back to the caller.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/uptime-oracle/uptime-oracle/internal/pkg/metrics"
	"github.com/uptime-oracle/uptime-oracle/pkg/log"
	"github.com/uptime-oracle/uptime-oracle/pkg/options"
)

const keyHeader = "api-subscription-key"

// defaultText is synthesized when a request carries no text, so the
// endpoint can be exercised with a bare POST.
const defaultText = "This is a test message."

// Proxy forwards synthesis requests to the vendor endpoint.
type Proxy struct {
	opts   *options.SpeechOptions
	client *http.Client
	logger log.Logger
}

// NewProxy creates a Proxy from the given options.
func NewProxy(opts *options.SpeechOptions, logger log.Logger) *Proxy {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Proxy{
		opts:   opts,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger.WithName("speech"),
	}
}

type synthesizeRequest struct {
	Text string `json:"text"`
}

// vendorRequest is the upstream wire format. The voice profile rides on
// every request; only the text varies.
type vendorRequest struct {
	Inputs              []string `json:"inputs"`
	TargetLanguageCode  string   `json:"target_language_code"`
	Speaker             string   `json:"speaker"`
	Pace                float64  `json:"pace"`
	SpeechSampleRate    int      `json:"speech_sample_rate"`
	EnablePreprocessing bool     `json:"enable_preprocessing"`
	Model               string   `json:"model"`
}

// ServeHTTP handles POST requests carrying {"text": "..."} and responds
// with the synthesized audio, or a JSON error mirroring the vendor's
// status when synthesis fails.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req synthesizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" {
		// A bare POST is valid; synthesize the fixed test message.
		req.Text = defaultText
	}
	if p.opts.APIKey == "" {
		p.logger.Error(nil, "Synthesis rejected, no subscription key configured")
		writeError(w, http.StatusInternalServerError, "speech service not configured")
		return
	}

	start := time.Now()
	status, err := p.forward(r.Context(), w, req.Text)
	metrics.TTSProxyLatency.WithLabelValues(status).Observe(time.Since(start).Seconds())
	if err != nil {
		p.logger.Error(err, "Synthesis request failed", "status", status)
	}
}

// forward issues the vendor call and streams the response into w. The
// returned label feeds the latency metric.
func (p *Proxy) forward(ctx context.Context, w http.ResponseWriter, text string) (string, error) {
	body, err := json.Marshal(vendorRequest{
		Inputs:              []string{text},
		TargetLanguageCode:  p.opts.LanguageCode,
		Speaker:             p.opts.Speaker,
		Pace:                p.opts.Pace,
		SpeechSampleRate:    p.opts.SampleRate,
		EnablePreprocessing: true,
		Model:               p.opts.Model,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encode request")
		return "network_error", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "build request")
		return "network_error", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(keyHeader, p.opts.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		writeError(w, http.StatusBadGateway, "speech vendor unreachable")
		return "network_error", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Relay the vendor's verdict verbatim so the caller sees the
		// real status, not a flattened 500.
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.StatusCode)
		if len(payload) > 0 && json.Valid(payload) {
			_, _ = w.Write(payload)
		} else {
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "speech synthesis failed"})
		}
		return "vendor_error", fmt.Errorf("vendor status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/wav"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, resp.Body); err != nil {
		// Headers are already out; nothing left to do but log.
		return "ok", fmt.Errorf("stream audio: %w", err)
	}
	return "ok", nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
