package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"idcheck/app"
	"idcheck/faces"
	"idcheck/handlers"
	"idcheck/processing"

	"github.com/spf13/cobra"
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <image>",
	Short: "Recognize the faces in a local image",
	Long: `Run the recognition pipeline and the face-count check on a local file
and print what POST /upload would answer.`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func init() {
	rootCmd.AddCommand(recognizeCmd)
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	ctx := context.Background()
	a, err := app.NewCore(ctx, cfg, app.Progress{})
	if err != nil {
		return err
	}
	defer a.Close()

	img, err := processing.Prepare(data, processing.PrepareOptions{MaxDimension: cfg.MaxImageDimension, Quality: cfg.JPEGQuality})
	if err != nil {
		return err
	}
	recognitions, err := a.Recognizer.Analyze(ctx, img)
	if err != nil {
		return err
	}
	for i, r := range recognitions {
		fmt.Printf("Face %d at %s: %s (distance %.4f)\n", i, r.Region.ToJSONString(), r.Match, r.Match.Distance)
	}

	results := faces.Matches(recognitions)
	response := map[string]any{"recognized_ids": faces.Labels(results)}
	var mismatch *faces.FaceCountMismatch
	if err := faces.CheckFaceCount(results, cfg.ExpectedFaces); errors.As(err, &mismatch) {
		response = map[string]any{"error": handlers.FaceCountMessage(mismatch.Expected), "detected_faces": mismatch.Detected}
	}
	out, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
