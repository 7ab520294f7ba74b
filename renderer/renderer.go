// Package renderer is the client for the external template-renderer
// service that turns a template plus a recipient name into the final
// certificate document.
package renderer

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Renderer produces the certificate artifact bytes. Content is expected
// to be deterministic for identical inputs; embedded timestamps are not.
type Renderer interface {
	Render(templateID uint, studentName string, customFields map[string]string) ([]byte, error)
}

// HTTPRenderer calls the renderer service over HTTP.
type HTTPRenderer struct {
	baseURL string
	apiKey  string
	client  *resty.Client
}

func NewHTTPRenderer(baseURL, apiKey string) *HTTPRenderer {
	return &HTTPRenderer{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  resty.New().SetTimeout(30 * time.Second),
	}
}

type renderRequest struct {
	TemplateID   uint              `json:"templateId"`
	StudentName  string            `json:"studentName"`
	CustomFields map[string]string `json:"customFields,omitempty"`
}

// Render posts the render job and returns the document bytes.
func (r *HTTPRenderer) Render(templateID uint, studentName string, customFields map[string]string) ([]byte, error) {
	req := r.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(renderRequest{
			TemplateID:   templateID,
			StudentName:  studentName,
			CustomFields: customFields,
		})
	if r.apiKey != "" {
		req.SetAuthToken(r.apiKey)
	}

	resp, err := req.Post(r.baseURL + "/render")
	if err != nil {
		return nil, fmt.Errorf("failed to call renderer: %v", err)
	}

	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("renderer error: %s", resp.String())
	}

	return resp.Body(), nil
}
