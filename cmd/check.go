package cmd

import (
	"fmt"

	"github.com/TFMV/quantree/internal/storage"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check [stream] [name...]",
	Short: "Check whether a stream might contain entries with the given names",
	Long: `Check builds a bloom filter over all entry names in a stored stream and
tests each given name against it. A negative answer is definitive; a
positive answer may rarely be a false positive.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		stream := args[0]

		store, err := storage.NewStreamStore(dir)
		if err != nil {
			return err
		}
		defer store.Close()

		filter, err := store.BuildNameFilter(stream)
		if err != nil {
			return err
		}

		for _, name := range args[1:] {
			if filter.Contains([]byte(name)) {
				fmt.Printf("%s: maybe\n", name)
			} else {
				fmt.Printf("%s: no\n", name)
			}
		}
		return nil
	},
}

func init() {
	checkCmd.Flags().String("dir", "streams", "Directory for stored streams")
	RootCmd.AddCommand(checkCmd)
}
