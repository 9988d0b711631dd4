package main

import (
	"context"
	"time"

	"github.com/niksmo/shopcart/config"
	"github.com/niksmo/shopcart/internal/app"
	"github.com/niksmo/shopcart/pkg/sigctx"
)

const closeTimeout = 10 * time.Second

func main() {
	sigCtx, closeApp := sigctx.NotifyContext()
	defer closeApp()

	cfg := config.Load()
	cfg.Print()

	shopcart := app.New(sigCtx, cfg)

	shopcart.Run(closeApp)

	<-sigCtx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()

	shopcart.Close(ctx)
}
