package mcp

import (
	"context"
	_ "embed"

	mcpTypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
)

//go:embed docs/echidna-features.md
var featuresDoc string

const featuresURI = "resource://echidna-features"

// FeaturesResource serves the bundled Echidna feature documentation
type FeaturesResource struct {
	logger *logrus.Logger
}

func NewFeaturesResource(logger *logrus.Logger) *FeaturesResource {
	if logger == nil {
		logger = logrus.New()
	}
	return &FeaturesResource{logger: logger}
}

func (r *FeaturesResource) GetResource() mcpTypes.Resource {
	return mcpTypes.NewResource(featuresURI,
		"Echidna Features",
		mcpTypes.WithResourceDescription("Documentation on Echidna's fuzzing capabilities and configuration"),
		mcpTypes.WithMIMEType("text/markdown"),
	)
}

func (r *FeaturesResource) Handler(ctx context.Context, req mcpTypes.ReadResourceRequest) ([]mcpTypes.ResourceContents, error) {
	r.logger.Debugf("Serving resource: %s", featuresURI)

	return []mcpTypes.ResourceContents{
		mcpTypes.TextResourceContents{
			URI:      featuresURI,
			MIMEType: "text/markdown",
			Text:     featuresDoc,
		},
	}, nil
}
