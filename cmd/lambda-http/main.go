// Command lambda-http serves the REST API behind an API Gateway HTTP API.
//
//	GOOS=linux GOARCH=arm64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-http
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"

	"docrisk-backend/internal/bootstrap"
	"docrisk-backend/internal/shared/config"
	"docrisk-backend/internal/shared/telemetry"
)

// coldStart builds the router once per container and remembers a failed build.
type coldStart struct {
	once  sync.Once
	build func() (*ginadapter.GinLambdaV2, error)
	proxy *ginadapter.GinLambdaV2
	err   error
}

func (s *coldStart) handle(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	s.once.Do(func() {
		s.proxy, s.err = s.build()
		if s.err != nil {
			telemetry.Error("lambda.bootstrap_failed", map[string]any{"error": s.err.Error()})
		}
	})
	if s.err != nil {
		return errorResponse(http.StatusServiceUnavailable, "UNAVAILABLE", "service failed to start"), nil
	}
	return s.proxy.ProxyWithContext(ctx, req)
}

func errorResponse(status int, code, message string) events.APIGatewayV2HTTPResponse {
	body, _ := json.Marshal(map[string]any{"error": map[string]string{"code": code, "message": message}})
	return events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Body:       string(body),
		Headers:    map[string]string{"Content-Type": "application/json", "Cache-Control": "no-store"},
	}
}

func buildRouter() (*ginadapter.GinLambdaV2, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	telemetry.SetLevel(cfg.LogLevel)
	app, err := bootstrap.Build(cfg)
	if err != nil {
		return nil, err
	}
	return ginadapter.NewV2(app.Router), nil
}

func main() {
	lambda.Start((&coldStart{build: buildRouter}).handle)
}
