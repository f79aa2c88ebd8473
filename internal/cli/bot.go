package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Proton-105/geogate/internal/bot"
	"github.com/Proton-105/geogate/internal/health"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		if app.cfg.Bot.Token == "" {
			return fmt.Errorf("bot token is not configured")
		}

		client, err := app.buildClient(cmd.Context())
		if err != nil {
			return err
		}

		b, err := bot.New(*app.cfg, client, app.log)
		if err != nil {
			return err
		}

		checker := health.NewChecker(app.log)
		checker.AddCheck("telegram", health.NewTelegramChecker(b.Telebot()))
		if !health.Healthy(checker.Check(cmd.Context())) {
			return fmt.Errorf("telegram bot failed its startup health check")
		}

		go b.Start()

		<-cmd.Context().Done()
		b.Stop()

		return nil
	},
}

func init() {
	rootCmd.AddCommand(botCmd)
}
