package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"brain2-canvas/internal/application/commands"
	"brain2-canvas/internal/domain/geometry"
	"brain2-canvas/internal/domain/graph"
	"brain2-canvas/internal/domain/shared"
	"brain2-canvas/internal/infrastructure/events"
	"brain2-canvas/internal/infrastructure/jsoncanvas"
	"brain2-canvas/internal/orchestrator"
)

func newDemoCommand() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Replay a scripted editing session",
		Long: `demo drives a fresh board through a short session (create, connect, group,
drag, delete, undo) and prints every outbound event as a JSON line followed
by the resulting JSON Canvas document.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec := events.NewRecorder()
			o, err := orchestrator.New(orchestrator.NewApp(orchestrator.DefaultSettings(), orchestrator.Deps{Publisher: rec}), nil)
			if err != nil {
				return err
			}
			defer o.Close()

			ctx := cmd.Context()
			for _, step := range demoScript() {
				if err := o.Dispatch(ctx, step); err != nil {
					return fmt.Errorf("%s: %w", step.CommandName(), err)
				}
			}
			o.App().FlushViewport()

			out := cmd.OutOrStdout()
			if !quiet {
				sink := events.NewWriterSink(out)
				for _, e := range rec.Events() {
					if err := sink.Deliver(context.Background(), e); err != nil {
						return err
					}
				}
			}
			heading.Fprintln(out, "Board")
			return jsoncanvas.Encode(out, o.Export(jsoncanvas.ExportOptions{}))
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Print only the final board")
	return cmd
}

func demoScript() []commands.Command {
	return []commands.Command{
		commands.CreateCard{ID: "idea", X: 0, Y: 0, Width: 240, Height: 160, Text: "# Idea\nSketch the flow", Tags: []string{"draft"}},
		commands.CreateCard{ID: "spec", X: 400, Y: 0, Width: 240, Height: 160, Text: "# Spec"},
		commands.CreateCard{ID: "ref", X: 400, Y: 300, Width: 240, Height: 160, Content: graph.ContentLink, URL: "https://jsoncanvas.org"},
		commands.ConnectNodes{From: "idea", To: "spec"},
		commands.SelectNode{NodeID: "spec"},
		commands.BeginConnect{NodeID: "spec", Side: geometry.SideBottom},
		commands.UpdateConnect{X: 520, Y: 280},
		commands.EndConnect{TargetID: "ref", X: 520, Y: 300},
		commands.SelectNode{NodeID: "idea"},
		commands.SelectNode{NodeID: "spec", Additive: true},
		commands.GroupSelection{Label: "Planning"},
		commands.BeginDrag{NodeID: "ref"},
		commands.DragMove{NodeID: "ref", X: 700, Y: 320},
		commands.EndDrag{NodeID: "ref"},
		commands.DeleteNodes{NodeIDs: []shared.NodeID{"ref"}},
		commands.Undo{},
		commands.EditCard{NodeID: "spec", Text: "# Spec\nRouting rules", Tags: []string{"review"}},
		commands.Wheel{ScreenX: 640, ScreenY: 400, DeltaY: -120},
		commands.Pan{DX: -80, DY: 40},
	}
}
