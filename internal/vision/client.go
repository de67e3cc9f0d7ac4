// Package vision wraps the Google Cloud Vision API for receipt text
// extraction.
package vision

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	vision "google.golang.org/api/vision/v1"
)

// TextExtractor is the part of Vision the worker needs. Tests swap in a
// fake.
type TextExtractor interface {
	ExtractText(ctx context.Context, imageBase64 string) (string, error)
}

type Client struct {
	service *vision.Service
}

// NewClient builds a Vision client. Exactly one of credentialsFile or
// credentialsJSON should be set; with neither, application default
// credentials apply.
func NewClient(ctx context.Context, credentialsFile, credentialsJSON string) (*Client, error) {
	var opts []option.ClientOption
	switch {
	case credentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	case credentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}

	service, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create vision service: %w", err)
	}

	return &Client{service: service}, nil
}

// ExtractText runs TEXT_DETECTION on a base64-encoded image and returns
// the full detected text, or "" when the image has none.
func (c *Client) ExtractText(ctx context.Context, imageBase64 string) (string, error) {
	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{{
			Image: &vision.Image{Content: imageBase64},
			Features: []*vision.Feature{{
				Type: "TEXT_DETECTION",
			}},
		}},
	}

	resp, err := c.service.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("annotate image: %w", err)
	}
	if len(resp.Responses) == 0 {
		return "", fmt.Errorf("empty annotate response")
	}

	r := resp.Responses[0]
	if r.Error != nil {
		return "", fmt.Errorf("vision API error: %s", r.Error.Message)
	}
	if r.FullTextAnnotation != nil {
		return r.FullTextAnnotation.Text, nil
	}
	if len(r.TextAnnotations) > 0 {
		return r.TextAnnotations[0].Description, nil
	}
	return "", nil
}
