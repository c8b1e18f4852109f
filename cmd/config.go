package main

import (
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/venue-enrichment/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the merged configuration as YAML with secrets redacted",
	RunE: func(_ *cobra.Command, _ []string) error {
		return writeConfig(os.Stdout, cfg)
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

const redacted = "********"

func redact(s string) string {
	if s == "" {
		return ""
	}
	return redacted
}

// writeConfig encodes a copy of c with every credential masked.
func writeConfig(out io.Writer, c *config.Config) error {
	masked := *c
	masked.Exa.Key = redact(c.Exa.Key)
	masked.Jina.Key = redact(c.Jina.Key)
	masked.Firecrawl.Key = redact(c.Firecrawl.Key)
	masked.OpenAI.Key = redact(c.OpenAI.Key)
	masked.Anthropic.Key = redact(c.Anthropic.Key)
	masked.Perplexity.Key = redact(c.Perplexity.Key)
	if c.Store.Driver != "" && c.Store.Driver != "sqlite" {
		masked.Store.DatabaseURL = redact(c.Store.DatabaseURL)
	}

	enc := yaml.NewEncoder(out)
	enc.SetIndent(2)
	if err := enc.Encode(masked); err != nil {
		return eris.Wrap(err, "encode config")
	}
	return enc.Close()
}
