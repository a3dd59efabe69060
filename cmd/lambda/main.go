package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/christophergentle/instaposter/internal/app"
	"github.com/christophergentle/instaposter/internal/config"
	lambdapkg "github.com/christophergentle/instaposter/internal/lambda"
	"github.com/christophergentle/instaposter/internal/logging"
)

func main() {
	ctx := context.Background()

	// Built once per container and reused across warm invocations.
	cfg, log, _, err := app.Load(ctx, app.Options{
		ConfigPath:  config.GetEnv("CONFIG_PATH", config.DefaultPath),
		ConsoleOnly: true,
	})
	if err != nil {
		boot := logging.NewLogger("info")
		lambda.Start(lambdapkg.NewFailedHandler(err, boot).HandleRequest)
		return
	}

	a := app.New(ctx, cfg, log)
	app.LogReport(log, a.SelfCheck())

	lambda.Start(lambdapkg.NewHandler(a.Workflow, log).HandleRequest)
}
