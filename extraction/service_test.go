package extraction

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"leaflet/leaflet"
	"leaflet/vision"

	"go.uber.org/zap/zaptest"
)

type stubClient struct {
	outcome vision.Outcome
	err     error
}

func (s stubClient) Extract(ctx context.Context, imagePath string) (vision.Outcome, error) {
	return s.outcome, s.err
}

var extracted = []leaflet.Product{
	leaflet.NewProduct(0, map[string]string{leaflet.FieldProductName: "Strawberries", leaflet.FieldPrice: "$2.49"}),
}

func TestService_Extract(t *testing.T) {
	upstream := vision.Outcome{Status: vision.StatusUpstreamError, Err: fmt.Errorf("%w: status 500", vision.ErrUpstream)}
	parse := vision.Outcome{Status: vision.StatusParseError, Raw: "nope", Err: fmt.Errorf("%w: bad json", vision.ErrParse)}

	testCases := []struct {
		name           string
		outcome        vision.Outcome
		fallback       bool
		expectedSource Source
		expectedErr    error
	}{
		{"Success", vision.Outcome{Status: vision.StatusSuccess, Products: extracted}, true, SourceModel, nil},
		{"SuccessWithoutFallback", vision.Outcome{Status: vision.StatusSuccess, Products: extracted}, false, SourceModel, nil},
		{"UpstreamFallback", upstream, true, SourceFallback, nil},
		{"ParseFallback", parse, true, SourceFallback, nil},
		{"UpstreamNoFallback", upstream, false, "", vision.ErrUpstream},
		{"ParseNoFallback", parse, false, "", vision.ErrParse},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(stubClient{outcome: tc.outcome}, tc.fallback, zaptest.NewLogger(t))

			result, err := svc.Extract(context.Background(), "leaflet.jpg")
			if tc.expectedErr != nil {
				if !errors.Is(err, tc.expectedErr) {
					t.Fatalf("expected %v, got %v", tc.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Source != tc.expectedSource {
				t.Errorf("expected source %s, got %s", tc.expectedSource, result.Source)
			}
			if tc.expectedSource == SourceFallback && !leaflet.IsFallback(result.Products) {
				t.Error("expected the fallback dataset")
			}
			if tc.expectedSource == SourceModel && len(result.Products) != len(extracted) {
				t.Errorf("expected %d products, got %d", len(extracted), len(result.Products))
			}
		})
	}
}

func TestService_LocalErrorIsReturned(t *testing.T) {
	svc := NewService(stubClient{err: os.ErrNotExist}, true, zaptest.NewLogger(t))
	if _, err := svc.Extract(context.Background(), "missing.jpg"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist, got %v", err)
	}
}
