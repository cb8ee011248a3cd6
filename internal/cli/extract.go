package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/watanaberin/retro-bio/pkg/errors"
	"github.com/watanaberin/retro-bio/pkg/extract"
	"github.com/watanaberin/retro-bio/pkg/profile"
)

// extractCommand creates the extract command for turning free-form text into
// a profile via the extraction API.
func (c *CLI) extractCommand() *cobra.Command {
	var (
		output  string
		apiKey  string
		model   string
		baseURL string
	)

	cmd := &cobra.Command{
		Use:   "extract [text]",
		Short: "Extract a profile from free-form text",
		Long: `Extract a structured profile from free-form text using the Gemini API.

The text is given as an argument or read from stdin with "-". The API key
comes from --api-key or the GEMINI_API_KEY environment variable. The result
is profile JSON suitable for the render command:

  retrobio extract "Rin, a systems programmer from Tokyo" | retrobio render -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(args)
			if err != nil {
				return err
			}

			if apiKey == "" {
				apiKey = os.Getenv("GEMINI_API_KEY")
			}

			opts := []extract.ClientOption{}
			if model != "" {
				opts = append(opts, extract.WithModel(model))
			}
			if baseURL != "" {
				opts = append(opts, extract.WithBaseURL(baseURL))
			}
			client, err := extract.NewClient(apiKey, opts...)
			if err != nil {
				return err
			}

			sp := newSpinnerWithContext(cmd.Context(), "extracting profile")
			sp.Start()
			p, err := client.Profile(cmd.Context(), text)
			if err != nil {
				sp.StopWithError("extraction failed")
				return err
			}
			sp.StopWithSuccess(fmt.Sprintf("extracted profile for %s", p.Username))

			data, err := profile.Marshal(p)
			if err != nil {
				return err
			}
			if output == "" {
				fmt.Println(string(data))
				return nil
			}
			if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
				return err
			}
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write profile JSON to a file instead of stdout")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Gemini API key (default $GEMINI_API_KEY)")
	cmd.Flags().StringVar(&model, "model", "", "Gemini model (default "+extract.DefaultModel+")")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "API base URL override")

	return cmd
}

// readText returns the extraction input: the argument, or stdin for "-".
func readText(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeExtraction, err, "read text from stdin")
		}
		return string(data), nil
	}
	return args[0], nil
}
