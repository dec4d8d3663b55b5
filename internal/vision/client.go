// internal/vision/client.go
package vision

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"time"

	"ecycle-workers/internal/classifier"
	"ecycle-workers/internal/common/config"
	"ecycle-workers/internal/common/errors"
	"ecycle-workers/internal/common/metrics"

	"github.com/go-resty/resty/v2"
)

const classifyPath = "/classify"

// Response is the image classifier's answer for one image.
type Response struct {
	Predictions []classifier.Prediction `json:"predictions"`
	Speed       string                  `json:"speed"`
	Category    *string                 `json:"category"`
}

type classifyRequest struct {
	ImageURL string `json:"image_url"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

// Classifier is satisfied by Client and by test doubles.
type Classifier interface {
	Classify(ctx context.Context, imageURL string) (*Response, error)
}

type Client struct {
	httpClient *resty.Client
}

func NewClient(cfg config.VisionConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Millisecond
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		httpClient.SetAuthToken(cfg.APIKey)
	}
	return &Client{httpClient: httpClient}
}

// Classify asks the service to label the image at imageURL.
func (c *Client) Classify(ctx context.Context, imageURL string) (*Response, error) {
	if strings.TrimSpace(imageURL) == "" {
		return nil, errors.NewInputValidationError("imageUrl is required")
	}

	start := time.Now()
	result := &Response{}
	res, err := c.httpClient.NewRequest().
		SetContext(ctx).
		SetBody(classifyRequest{ImageURL: imageURL}).
		SetResult(result).
		SetError(&errorBody{}).
		Post(classifyPath)

	stdErr := handleError(res, err)
	outcome := "ok"
	if stdErr != nil {
		outcome = strings.ToLower(string(stdErr.Code))
	}
	metrics.VisionRequestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())

	if stdErr != nil {
		return nil, stdErr
	}
	if result.Predictions == nil {
		result.Predictions = []classifier.Prediction{}
	}
	return result, nil
}

// handleError maps transport failures and non-2xx responses. Resty reports
// neither as an error on its own.
func handleError(res *resty.Response, err error) *errors.StandardError {
	if err != nil {
		if res != nil && res.IsSuccess() {
			return errors.NewVisionBadResponseError(res.StatusCode(), err.Error())
		}
		if isTimeout(err) {
			return errors.NewVisionTimeoutError(err)
		}
		return errors.NewVisionUnavailableError(err)
	}

	if res.IsError() {
		detail := res.Status()
		if body, ok := res.Error().(*errorBody); ok && body.Detail != "" {
			detail = body.Detail
		}
		if res.StatusCode() >= 500 {
			return errors.NewVisionUnavailableError(fmt.Errorf("status %d: %s", res.StatusCode(), detail))
		}
		return errors.NewVisionBadResponseError(res.StatusCode(), detail)
	}
	return nil
}

func isTimeout(err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
