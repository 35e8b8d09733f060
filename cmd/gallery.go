package cmd

import (
	"context"
	"fmt"

	"idcheck/app"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var galleryCmd = &cobra.Command{
	Use:   "gallery",
	Short: "Build the gallery and list the enrolled identities",
	Long: `Run every enrollment image through the face engine, the same way the server
does at startup, then list the enrolled labels and the skipped images.`,
	RunE: runGallery,
}

func init() {
	rootCmd.AddCommand(galleryCmd)
}

func runGallery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	var bar *progressbar.ProgressBar
	a, err := app.NewCore(context.Background(), cfg, app.Progress{
		Start: func(total int) {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("Enrolling"),
				progressbar.OptionShowCount(),
				progressbar.OptionShowIts(),
				progressbar.OptionSetItsString("images"),
				progressbar.OptionShowElapsedTimeOnFinish(),
				progressbar.OptionFullWidth(),
			)
		},
		Step: func() {
			_ = bar.Add(1)
		},
	})
	if err != nil {
		return err
	}
	defer a.Close()
	if bar != nil {
		_ = bar.Finish()
	}

	fmt.Printf("\nEngine: %s\n", a.Engine.Model())
	fmt.Printf("Enrolled %d of %d images\n\n", a.Report.Enrolled, a.Report.Total)
	for i, record := range a.Gallery.Records() {
		fmt.Printf("%4d  %-30s %s\n", i+1, record.Label, record.Source)
	}
	if len(a.Report.Skipped) > 0 {
		fmt.Printf("\nSkipped:\n")
		for _, skipped := range a.Report.Skipped {
			fmt.Printf("  %-30s %-16s %v\n", skipped.Name, skipped.Reason, skipped.Err)
		}
	}
	return nil
}
