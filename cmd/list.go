package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/TFMV/quantree/internal/metadata"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed streams",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")

		index, err := metadata.New(filepath.Join(dir, "index.db"))
		if err != nil {
			return err
		}
		defer index.Close()

		streams, err := index.List()
		if err != nil {
			return err
		}

		if len(streams) == 0 {
			fmt.Println("No streams found")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tROOT\tCREATED\tFILES\tDIRS\tSIZE\tRAW BYTES")
		for _, s := range streams {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
				s.ID, s.RootPath, s.CreatedAt.Format("2006-01-02 15:04:05"),
				s.Files, s.Dirs, s.TotalSize, s.RawBytes)
		}
		return w.Flush()
	},
}

func init() {
	listCmd.Flags().String("dir", "streams", "Directory for stored streams")
	RootCmd.AddCommand(listCmd)
}
