package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/phanxgames/furnish"
)

func newScriptCmd(v *viper.Viper) *cobra.Command {
	var fps float64
	cmd := &cobra.Command{
		Use:   "script <file.json>",
		Short: "Replay a scripted placement session headless",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if fps <= 0 {
				return fmt.Errorf("--fps must be positive, got %v", fps)
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}
			runner, err := furnish.LoadScript(data)
			if err != nil {
				return err
			}
			a, err := setup(v)
			if err != nil {
				return err
			}
			s, g := a.newSession()
			defer s.Close()
			s.SetSurfaceTracker(runner)

			if err := runner.Run(cmd.Context(), s, g, 1/fps); err != nil {
				return err
			}
			for _, err := range runner.Errors() {
				a.log.Warn().Err(err).Msg("script step had no effect")
			}
			if err := furnish.CheckInvariants(s); err != nil {
				return fmt.Errorf("session invariants: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d placed\n", len(s.Placed()))
			for _, p := range s.Placed() {
				fmt.Fprintf(out, "#%d %s at (%.2f, %.2f, %.2f) yaw %.2f scale %.2f\n",
					p.PlacementID, p.Item, p.Position[0], p.Position[1], p.Position[2], p.Yaw(), p.Scale[0])
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&fps, "fps", 60, "Simulated frame rate")
	return cmd
}
