package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/prudhvinik1/storyline/internal/services"
)

type PostOptions struct {
	*RootOptions
	Media string
	Text  string
}

// NewPostCommand creates the post command.
func NewPostCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PostOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Post a text or media item to your story",
		Long: `Post a single item to your own story and print it.

--media takes a local image or video file. The file must be readable;
when access is refused nothing is posted.

Example:
  storyctl post --text "Hello"
  storyctl post --media ./beach.jpg`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPost(cmd, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.Media, "media", "", "path of an image or video file")
	cmd.Flags().StringVar(&opts.Text, "text", "", "text of the item")
	cmd.MarkFlagsMutuallyExclusive("media", "text")
	cmd.MarkFlagsOneRequired("media", "text")

	return cmd
}

func runPost(cmd *cobra.Command, opts *PostOptions, out io.Writer) error {
	cfg := opts.Config
	store := services.NewStoryStore(cfg.LocalUserID, cfg.LocalAvatar)

	if opts.Text != "" {
		item, err := store.CreateText(opts.Text)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "posted %s %q (expires %s)\n", item.ID, item.Text, item.ExpiresAt.Format("15:04"))
		return nil
	}

	picker := services.FilePicker{Path: opts.Media, Open: opts.OpenMedia}
	item, err := store.CreateFromPicker(cmd.Context(), picker)
	if errors.Is(err, services.ErrPermissionDenied) {
		fmt.Fprintf(out, "Cannot access %s. Allow read access to the file and try again.\n", opts.Media)
		return err
	}
	if err != nil {
		return err
	}

	opts.Logger.Debug("media posted", "item_id", item.ID, "uri", item.MediaURI)
	fmt.Fprintf(out, "posted %s %s %s (expires %s)\n", item.ID, item.Kind, item.MediaURI, item.ExpiresAt.Format("15:04"))
	return nil
}
