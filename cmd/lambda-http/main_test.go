package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
)

func TestFailedBuildAnswers503AndIsNotRetried(t *testing.T) {
	builds := 0
	s := &coldStart{build: func() (*ginadapter.GinLambdaV2, error) {
		builds++
		return nil, errors.New("DATABASE_URL is required")
	}}

	for i := 0; i < 2; i++ {
		resp, err := s.handle(context.Background(), events.APIGatewayV2HTTPRequest{})
		if err != nil {
			t.Fatalf("expected no invocation error, got %v", err)
		}
		if resp.StatusCode != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", resp.StatusCode)
		}
		if !strings.Contains(resp.Body, `"code":"UNAVAILABLE"`) {
			t.Fatalf("unexpected body %s", resp.Body)
		}
	}
	if builds != 1 {
		t.Fatalf("expected one build attempt, got %d", builds)
	}
}
