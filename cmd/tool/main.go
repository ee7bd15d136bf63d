package tool

import (
	"github.com/spf13/cobra"
)

const (
	toolUsage     = "tool"
	toolShortDesc = "Executes tools as subcommands"
	toolLongDesc  = "This command executes the specified tool on a flash image. The device should be stopped."
	toolExample   = "doselog tool dump --config <path> [flags]"

	defaultConfigFilePath = "./doselog.yml"
)

var (
	// Cmd is the tool command.
	Cmd = &cobra.Command{
		Use:        toolUsage,
		Short:      toolShortDesc,
		Long:       toolLongDesc,
		SuggestFor: []string{"dump", "inspect", "backup", "restore"},
		Example:    toolExample,
	}

	// configFilePath and imagePath locate the flash image and its geometry.
	configFilePath string
	imagePath      string
)

func init() {
	Cmd.PersistentFlags().StringVarP(&configFilePath, "config", "c", defaultConfigFilePath,
		"path of the doselog YAML configuration describing the flash geometry")
	Cmd.PersistentFlags().StringVarP(&imagePath, "image", "i", "",
		"flash image path, overrides flash_image of the configuration")

	Cmd.AddCommand(dumpCmd)
	Cmd.AddCommand(inspectCmd)
	Cmd.AddCommand(backupCmd)
	Cmd.AddCommand(restoreCmd)
}
