package commands

import (
	"os"

	"github.com/dnvriend/aws-primitives-tool/internal/registry"
	"github.com/urfave/cli"
)

// Completion returns the `aptool completion ...` command table, a thin
// consumer of internal/registry so the shell scripts never duplicate the
// category/command tables declared across this package's other files.
func Completion() cli.Command {
	return cli.Command{
		Name:      "completion",
		Usage:     "print a shell completion script",
		ArgsUsage: "bash|zsh",
		Action: func(c *cli.Context) error {
			switch c.Args().First() {
			case "bash":
				registry.BashCompletion(os.Stdout)
			case "zsh":
				registry.ZshCompletion(os.Stdout)
			default:
				return cli.NewExitError("usage: aptool completion bash|zsh", 2)
			}
			return nil
		},
	}
}
