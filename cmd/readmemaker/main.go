package main

import (
	"fmt"
	"os"

	"github.com/duluk/chatbot/pkg/LLM"
	"github.com/duluk/chatbot/pkg/cli"
	"github.com/duluk/chatbot/pkg/config"
	"github.com/duluk/chatbot/pkg/readme"
)

func main() {
	cli.Exit(run())
}

func run() error {
	opts, done, err := cli.Init(config.ReadmeProfile, os.Stdout)
	if err != nil || done {
		return err
	}

	model, ok := opts.Model(opts.ModelName)
	if !ok {
		return fmt.Errorf("unknown model %q", opts.ModelName)
	}

	ctx, cancel := cli.SignalContext()
	defer cancel()

	key, err := LLM.ClientKey(model.Provider, opts.ConfigDir)
	if err != nil {
		return err
	}
	client, err := LLM.NewClient(ctx, model.Provider, key)
	if err != nil {
		return err
	}
	defer client.Close()

	p := cli.NewPrompter(opts.ScreenTextWidth)
	return readme.Run(ctx, readme.NewGenerator(client, model), p.ReadLine, os.Stdout)
}
