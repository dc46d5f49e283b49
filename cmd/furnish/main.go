// Command furnish drives the placement core outside a headset.
//
//	furnish run              desktop shell: top-down room, mouse and touch input
//	furnish catalog          load every catalog model and report failures
//	furnish script <file>    replay a scripted session headless
//
// Shell controls:
//
//	1-9         Select catalog item
//	Click       Place the preview / select a placed item
//	Drag        Rotate the active item (two fingers: move or pinch)
//	Tab         Make the preview the gesture target
//	Enter       Place the preview at the cursor
//	Esc         Cancel the preview, or deselect
//	D           Duplicate the active item
//	Delete      Delete the active item
package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/phanxgames/furnish/config"
)

var configPath string

func main() {
	v := config.New()

	cmd := &cobra.Command{
		Use:           "furnish",
		Short:         "AR furniture placement core",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (yaml, json, toml)")
	cmd.PersistentFlags().String("log-level", "", "Log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().String("models", "", "Model root directory")
	bindFlag(v, cmd, "logLevel", "log-level")
	bindFlag(v, cmd, "modelRoot", "models")

	cmd.AddCommand(newRunCmd(v), newCatalogCmd(v), newScriptCmd(v))

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}
