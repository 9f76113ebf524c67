// The lambda command serves the same API behind API Gateway. The container
// is built once during cold start and reused across invocations.
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"

	"studyflow-backend/internal/config"
	"studyflow-backend/internal/di"
)

var chiLambda *chiadapter.ChiLambdaV2

func init() {
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("building container: %v", err)
	}

	router, ok := container.Handler.(*chi.Mux)
	if !ok {
		log.Fatal("handler is not a chi router")
	}
	chiLambda = chiadapter.NewV2(router)

	log.Printf("cold start completed in %v", time.Since(start))
}

func main() {
	lambda.Start(chiLambda.ProxyWithContextV2)
}
