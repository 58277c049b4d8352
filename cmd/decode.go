package cmd

import (
	"fmt"
	"os"

	"github.com/TFMV/quantree/internal/decode"
	"github.com/spf13/cobra"
)

var decodeCmd = &cobra.Command{
	Use:   "decode [stream]",
	Short: "Decode a stored quantum stream into an output format",
	Long: `Decode renders a quantum stream through one of the output renderers:

  json     nested JSON document (default)
  classic  human-readable tree
  hex      one field-annotated line per entry
  stats    aggregate counters

The stream is read from the store by name, or from a raw .qt file with --file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		file, _ := cmd.Flags().GetString("file")
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		if name == "" && file == "" {
			return fmt.Errorf("either a stream name or --file must be specified")
		}

		data, err := readStreamArg(dir, name, file)
		if err != nil {
			return err
		}

		var renderer decode.Decoder
		switch format {
		case "json":
			renderer = decode.NewJSONDecoder()
		case "classic":
			renderer = decode.NewClassicDecoder()
		case "hex":
			renderer = decode.NewHexDecoder()
		case "stats":
			renderer = decode.NewStatsDecoder()
		default:
			return fmt.Errorf("unknown format %q (want json, classic, hex or stats)", format)
		}

		w := os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		return decode.DecodeStream(data, renderer, w)
	},
}

func init() {
	decodeCmd.Flags().String("dir", "streams", "Directory for stored streams")
	decodeCmd.Flags().String("file", "", "Decode a raw .qt file instead of a stored stream")
	decodeCmd.Flags().String("format", "json", "Output format: json, classic, hex, stats")
	decodeCmd.Flags().String("output", "", "Write output to a file instead of stdout")
	RootCmd.AddCommand(decodeCmd)
}
