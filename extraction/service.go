package extraction

import (
	"context"

	"leaflet/leaflet"
	"leaflet/vision"

	"go.uber.org/zap"
)

type Source string

const (
	SourceModel    Source = "model"
	SourceFallback Source = "fallback"
)

// Client is implemented by vision.Client.
type Client interface {
	Extract(ctx context.Context, imagePath string) (vision.Outcome, error)
}

type Result struct {
	Products []leaflet.Product
	Source   Source
}

// Service turns extraction outcomes into products, substituting the sample
// dataset for failed attempts when fallback is enabled.
type Service struct {
	client   Client
	fallback bool
	logger   *zap.Logger
}

func NewService(client Client, fallback bool, logger *zap.Logger) *Service {
	return &Service{
		client:   client,
		fallback: fallback,
		logger:   logger,
	}
}

func (s *Service) Extract(ctx context.Context, imagePath string) (*Result, error) {
	outcome, err := s.client.Extract(ctx, imagePath)
	if err != nil {
		return nil, err
	}

	if outcome.OK() {
		return &Result{Products: outcome.Products, Source: SourceModel}, nil
	}

	if !s.fallback {
		return nil, outcome.Err
	}

	s.logger.Warn("serving fallback products",
		zap.String("image", imagePath),
		zap.Stringer("status", outcome.Status),
		zap.Error(outcome.Err))

	return &Result{Products: leaflet.Fallback(), Source: SourceFallback}, nil
}
