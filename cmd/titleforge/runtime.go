package main

import (
	"context"

	"github.com/entrhq/titleforge/pkg/browser"
	"github.com/entrhq/titleforge/pkg/config"
	"github.com/entrhq/titleforge/pkg/session"
	"github.com/entrhq/titleforge/pkg/synthesis"
)

// newRuntime builds the browser controller and session router from the
// loaded configuration. When a key is configured the model is set up front,
// so clients may skip set-config.
func newRuntime(ctx context.Context) (*browser.Controller, *session.Router, error) {
	bs := config.GetBrowser().Snapshot()
	ls := config.GetLLM().Snapshot()

	ctrl := browser.NewController(browser.Options{
		Timeout:       bs.Timeout,
		SettleDelay:   bs.SettleDelay,
		Headless:      bs.Headless,
		MuteAudio:     bs.MuteAudio,
		InstallDriver: bs.InstallDriver,
	})

	router := session.NewRouter(ctrl,
		session.WithStartURL(bs.StartURL),
		session.WithSynthesisDefaults(synthesis.Config{
			BaseURL:         ls.BaseURL,
			Candidates:      ls.Candidates,
			MaxPromptTokens: ls.MaxPromptTokens,
			MaxOutputTokens: ls.MaxOutputTokens,
			Temperature:     ls.Temperature,
			TopP:            ls.TopP,
		}),
	)

	if ls.APIKey != "" {
		if err := router.SetConfig(ctx, ls.APIKey, ls.ModelKey); err != nil {
			return nil, nil, err
		}
	}
	return ctrl, router, nil
}
