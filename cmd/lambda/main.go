package main

import (
	"context"
	"log"
	"os"

	"github.com/alecthomas/kong"
	awslambda "github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	hakimconfig "github.com/modernice/hakim/internal/config"
	"github.com/modernice/hakim/internal/lambda"
)

func main() {
	ctx := context.Background()

	// configuration is read from the environment only
	var cfg hakimconfig.Config
	parser, err := kong.New(&cfg, kong.Name("hakim-lambda"))
	if err != nil {
		log.Fatalf("configure: %v", err)
	}
	if _, err := parser.Parse(nil); err != nil {
		log.Fatalf("parse environment: %v", err)
	}

	pipeline, err := cfg.Pipeline(ctx)
	if err != nil {
		log.Fatalf("configure pipeline: %v", err)
	}

	var warmer *lambda.Warmer
	if awsCfg, err := config.LoadDefaultConfig(ctx); err != nil {
		log.Printf("load AWS config, warmup will not self-invoke: %v", err)
	} else {
		warmer = lambda.NewWarmer(lambdasdk.NewFromConfig(awsCfg), os.Getenv("AWS_LAMBDA_FUNCTION_NAME"))
	}

	fn := lambda.NewFunction(lambda.NewHandler(pipeline), warmer)
	awslambda.Start(fn.Invoke)
}
