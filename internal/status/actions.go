package status

import (
	"fmt"
	"os"

	"github.com/dtnitsch/estate-harvester/internal/common"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func StatusAction(c *cli.Context) error {
	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
	}

	s, err := common.OpenStore(c.Context, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	report, err := BuildReport(c.Context, s, cfg.Crawl.Name, c.Int("runs"), c.Int("top"))
	if err != nil {
		return fmt.Errorf("failed to build status report: %w", err)
	}

	switch c.String("format") {
	case "yaml":
		yamlBytes, err := yaml.Marshal(report)
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Print(string(yamlBytes))
	case "", "text":
		WriteText(os.Stdout, report)
	default:
		return fmt.Errorf("unknown format %q (want text or yaml)", c.String("format"))
	}
	return nil
}
