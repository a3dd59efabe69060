package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImagesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "images",
		Short: "List the image URLs the next run can choose from",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer s.Close()

			for _, url := range s.Images.ListImages(cmd.Context()) {
				fmt.Fprintln(cmd.OutOrStdout(), url)
			}
			return nil
		},
	}
}

func newUploadCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <file> [object]",
		Short: "Upload a local image to the bucket",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer s.Close()

			name := ""
			if len(args) == 2 {
				name = args[1]
			}
			url, err := s.Images.Upload(cmd.Context(), args[0], name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}

func newDownloadCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "download <object> <dest>",
		Short: "Download an object from the bucket to a local file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Images.Download(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Downloaded %s to %s\n", args[0], args[1])
			return nil
		},
	}
}
