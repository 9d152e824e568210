package export

import (
	"fmt"
	"io"
	"os"

	"github.com/dtnitsch/estate-harvester/internal/common"
	"github.com/urfave/cli/v2"
)

func ExportAction(c *cli.Context) error {
	logger := common.NewLogger(c)

	cfg, err := common.LoadConfig(c)
	if err != nil {
		return err
	}

	s, err := common.OpenStore(c.Context, cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	var out io.Writer = os.Stdout
	output := c.String("output")
	if output != "" && output != "-" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		defer f.Close()
		out = f
	}

	n, err := WriteListings(c.Context, s, out)
	if err != nil {
		return fmt.Errorf("export failed after %d listings: %w", n, err)
	}
	logger.Info("exported listings", "count", n, "output", output)
	return nil
}
