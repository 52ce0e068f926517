package cmd

import (
	"fmt"
	"strings"

	"github.com/corey/zeal/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the resolved configuration",
	Long:  "Shows settings after zeal.yaml, .env and ZEAL_ environment overrides. The API key is masked.",
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	shown := *settings
	shown.LLM.APIKey = maskKey(settings.LLM.APIKey)
	if shown.Cache.RedisPassword != "" {
		shown.Cache.RedisPassword = "****"
	}
	if jsonOut {
		return printJSON(shown)
	}
	fmt.Print(formatConfig(&shown))
	return nil
}

// maskKey keeps the last four characters of a secret.
func maskKey(key string) string {
	key = strings.TrimSpace(key)
	switch {
	case key == "":
		return ""
	case len(key) <= 4:
		return "****"
	default:
		return "****" + key[len(key)-4:]
	}
}

func formatConfig(c *config.Config) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ zeal config%s\n", colorBold, colorReset))
	source := c.Source.Path
	if source == "" {
		source = "(bundled)"
	}
	sb.WriteString(fmt.Sprintf("  Source:     %s  watch=%v\n", source, c.Source.Watch))
	switch c.Cache.Backend {
	case config.CacheBbolt:
		sb.WriteString(fmt.Sprintf("  Cache:      bbolt %s\n", c.Cache.Path))
	case config.CacheRedis:
		sb.WriteString(fmt.Sprintf("  Cache:      redis %s db=%d\n", c.Cache.RedisAddr, c.Cache.RedisDB))
	default:
		sb.WriteString(fmt.Sprintf("  Cache:      %s\n", c.Cache.Backend))
	}
	sb.WriteString(fmt.Sprintf("  Workers:    %d\n", c.Build.Workers))
	sb.WriteString(fmt.Sprintf("  Sentiment:  %s\n", c.Sentiment.Scorer))

	key := c.LLM.APIKey
	if key == "" {
		key = fmt.Sprintf("%snot set%s", colorYellow, colorReset)
	}
	sb.WriteString(fmt.Sprintf("  LLM:        %s %s  key=%s\n", c.LLM.Model, c.LLM.BaseURL, key))
	sb.WriteString(fmt.Sprintf("  Log:        %s/%s\n", c.Log.Level, c.Log.Format))
	sb.WriteString(fmt.Sprintf("  Server:     %s\n", c.Server.Addr))
	return sb.String()
}
