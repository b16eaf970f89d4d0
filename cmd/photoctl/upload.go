package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <group-id> <photo-id> <file>",
	Short: "Upload a photo",
	Long: `Upload a local image file as the photo identified by group and
photo IDs. The content type is detected from the file extension.`,
	Args: cobra.ExactArgs(3),
	RunE: runUpload,
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}

	result, err := client.Upload(cmd.Context(), args[0], args[1], args[2])
	if err != nil {
		return err
	}

	fmt.Printf("Uploaded %s (%d bytes) as %s\n", args[2], result.Size, result.Key)
	return nil
}
