package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mathbuddy/mathbuddy-go/internal/emotion"
	"github.com/mathbuddy/mathbuddy-go/internal/fusion"
	"github.com/mathbuddy/mathbuddy-go/internal/model"
)

type fuseOptions struct {
	text        string
	faces       string
	halfLife    time.Duration
	persistence time.Duration
}

func newFuseCmd() *cobra.Command {
	var opts fuseOptions

	cmd := &cobra.Command{
		Use:   "fuse",
		Short: "Reduce a text rating and a face timeline and merge them",
		Example: `  fusectl fuse --text 0.2,0.1,0.7
  fusectl fuse --text 0.6,0.3,0.1 --faces faces.json --half-life 60s
  cat faces.json | fusectl fuse --faces -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFuse(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.text, "text", "", "text sentiment confidences as neutral,boredom,engagement")
	cmd.Flags().StringVar(&opts.faces, "faces", "", "JSON file of face observations, - for stdin")
	cmd.Flags().DurationVar(&opts.halfLife, "half-life", fusion.DefaultHalfLife, "face observation half-life")
	cmd.Flags().DurationVar(&opts.persistence, "persistence", fusion.DefaultPersistence, "how long the last face expression holds")
	return cmd
}

func runFuse(cmd *cobra.Command, opts fuseOptions) error {
	var rating *emotion.SentimentRating
	if opts.text != "" {
		r, err := parseRating(opts.text)
		if err != nil {
			return err
		}
		rating = r
	}

	var faces []emotion.FaceEmotionRating
	if opts.faces != "" {
		data, err := readInput(cmd.InOrStdin(), opts.faces)
		if err != nil {
			return err
		}
		faces, err = model.ParseFaceEmotions(data)
		if err != nil {
			return err
		}
	}

	a := fusion.Aggregator{HalfLife: opts.halfLife, Persistence: opts.persistence}
	result := a.Assess(rating, faces)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "text:   %s\n", formatScored(result.Text))
	fmt.Fprintf(out, "face:   %s (%d observations)\n", formatScored(result.Face), len(faces))
	fmt.Fprintf(out, "merged: %s (source: %s)\n", result.Merged, fusion.Source(result.Text, result.Face))
	return nil
}

// parseRating reads "n,b,e" confidences.
func parseRating(s string) (*emotion.SentimentRating, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("--text wants neutral,boredom,engagement, got %q", s)
	}

	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("--text value %q: %w", p, err)
		}
		v[i] = f
	}
	return &emotion.SentimentRating{
		NeutralConfidence:    v[0],
		BoredomConfidence:    v[1],
		EngagementConfidence: v[2],
	}, nil
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read faces: %w", err)
	}
	return data, nil
}

func formatScored(s *emotion.Scored) string {
	if s == nil {
		return "none"
	}
	return fmt.Sprintf("%s %.3f", s.Sentiment, s.Confidence)
}
