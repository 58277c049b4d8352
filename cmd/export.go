package cmd

import (
	"fmt"
	"os"

	"github.com/TFMV/quantree/internal/storage"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [stream] [destination]",
	Short: "Export a stored stream to a raw .qt file",
	Long: `Export writes the decompressed quantum stream to a standalone file so it
can be fed to other tools or shipped elsewhere. With --verify the stream is
checked against the digest recorded at scan time before writing.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		verify, _ := cmd.Flags().GetString("verify")
		stream := args[0]
		destination := args[1]

		store, err := storage.NewStreamStore(dir)
		if err != nil {
			return err
		}
		defer store.Close()

		var data []byte
		if verify != "" {
			data, err = store.ReadVerified(stream, verify)
		} else {
			data, err = store.ReadStream(stream)
		}
		if err != nil {
			return err
		}

		if err := os.WriteFile(destination, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", destination, err)
		}

		fmt.Printf("Exported stream %q to %s (%d bytes)\n", stream, destination, len(data))
		return nil
	},
}

func init() {
	exportCmd.Flags().String("dir", "streams", "Directory for stored streams")
	exportCmd.Flags().String("verify", "", "Expected BLAKE3 digest to verify before export")
	RootCmd.AddCommand(exportCmd)
}
