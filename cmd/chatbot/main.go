package main

import (
	"os"

	"github.com/duluk/chatbot/pkg/chat"
	"github.com/duluk/chatbot/pkg/cli"
	"github.com/duluk/chatbot/pkg/config"
)

func main() {
	cli.Exit(run())
}

func run() error {
	opts, done, err := cli.Init(config.ChatbotProfile, os.Stdout)
	if err != nil || done {
		return err
	}

	ctx, cancel := cli.SignalContext()
	defer cancel()

	app := chat.NewApp(opts, cli.NewPrompter(opts.ScreenTextWidth), os.Stdout)
	return app.Run(ctx)
}
