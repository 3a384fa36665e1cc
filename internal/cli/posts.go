package cli

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/emilythestrangee/dcplaces/backend/internal/models"
)

func (r *root) newPostsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "posts",
		Aliases: []string{"p"},
		Args:    cobra.NoArgs,
		Short:   "List and manage posts",
	}
	cmd.AddCommand(
		r.newPostsListCommand(),
		r.newPostsFeaturedCommand(),
		r.newPostsShowCommand(),
		r.newPostsCreateCommand(),
		r.newPostsEditCommand(),
		r.newPostsDeleteCommand(),
		r.newPostsUpvoteCommand(),
	)
	return cmd
}

func parseIDArg(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q", what, raw)
	}
	return id, nil
}

func printPosts(out io.Writer, posts []models.Post) {
	if len(posts) == 0 {
		dimColor.Fprintln(out, "No posts")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUPVOTES\tCREATED\tTITLE")
	for _, p := range posts {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", p.ID, p.Upvotes, p.CreatedAt.Local().Format("2006-01-02 15:04"), p.Title)
	}
	_ = tw.Flush()
}

func printPost(out io.Writer, p *models.Post) {
	headColor.Fprintln(out, p.Title)
	dimColor.Fprintf(out, "#%d · %d upvotes · %s\n", p.ID, p.Upvotes, p.CreatedAt.Local().Format(time.RFC1123))
	if p.ImageURL != "" {
		fmt.Fprintf(out, "image: %s\n", p.ImageURL)
	}
	if p.Content != "" {
		fmt.Fprintf(out, "\n%s\n", p.Content)
	}
}

func (r *root) newPostsListCommand() *cobra.Command {
	var sort, search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, app *App, args []string) error {
			posts, err := app.API.ListPosts(ctx, sort, search)
			if err != nil {
				return err
			}
			printPosts(app.Out, posts)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&sort, "sort", "s", "newest", "newest or upvotes")
	cmd.Flags().StringVarP(&search, "search", "q", "", "filter by title")
	return cmd
}

func (r *root) newPostsFeaturedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "featured",
		Short: "Show the featured posts",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, app *App, args []string) error {
			posts, err := app.API.Featured(ctx)
			if err != nil {
				return err
			}
			printPosts(app.Out, posts)
			return nil
		}),
	}
}

func (r *root) newPostsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a post and its comments",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, app *App, args []string) error {
			id, err := parseIDArg(args[0], "post id")
			if err != nil {
				return err
			}
			post, err := app.API.GetPost(ctx, id)
			if err != nil {
				return err
			}
			comments, err := app.API.ListComments(ctx, id)
			if err != nil {
				return err
			}
			printPost(app.Out, post)
			fmt.Fprintln(app.Out)
			printComments(app.Out, comments)
			return nil
		}),
	}
}

// imageURL resolves --image: a local file is uploaded first, anything else
// is used as the URL.
func imageURL(ctx context.Context, app *App, image string) (string, error) {
	if image == "" {
		return "", nil
	}
	f, err := os.Open(image)
	if os.IsNotExist(err) {
		return image, nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(image))
	return app.API.UploadImage(ctx, filepath.Base(image), contentType, f)
}

func (r *root) newPostsCreateCommand() *cobra.Command {
	var (
		in    models.CreatePostRequest
		image string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a post",
		Args:  cobra.NoArgs,
		RunE: r.run(func(ctx context.Context, app *App, args []string) error {
			if _, err := app.requireSession(); err != nil {
				return err
			}
			if in.Upvotes < 0 {
				return fmt.Errorf("upvotes cannot be negative")
			}
			url, err := imageURL(ctx, app, image)
			if err != nil {
				return err
			}
			in.ImageURL = url

			post, err := app.API.CreatePost(ctx, in)
			if err != nil {
				return err
			}
			app.ok("Created post #%d", post.ID)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&in.Title, "title", "t", "", "post title")
	cmd.Flags().StringVarP(&in.Content, "content", "c", "", "post body")
	cmd.Flags().StringVarP(&image, "image", "i", "", "image URL or local file to upload")
	cmd.Flags().IntVar(&in.Upvotes, "upvotes", 0, "initial upvote count")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func (r *root) newPostsEditCommand() *cobra.Command {
	var title, content, image string
	var cmd *cobra.Command
	cmd = &cobra.Command{
		Use:   "edit [id]",
		Short: "Edit a post; flags not given keep their current value, --image \"\" removes the image",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, app *App, args []string) error {
			if _, err := app.requireSession(); err != nil {
				return err
			}
			id, err := parseIDArg(args[0], "post id")
			if err != nil {
				return err
			}
			current, err := app.API.GetPost(ctx, id)
			if err != nil {
				return err
			}

			in := models.UpdatePostRequest{Title: current.Title, Content: current.Content, ImageURL: current.ImageURL}
			flags := cmd.Flags()
			if flags.Changed("title") {
				in.Title = title
			}
			if flags.Changed("content") {
				in.Content = content
			}
			if flags.Changed("image") {
				if in.ImageURL, err = imageURL(ctx, app, image); err != nil {
					return err
				}
			}

			if _, err := app.API.UpdatePost(ctx, id, in); err != nil {
				return err
			}
			app.ok("Updated post #%d", id)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&content, "content", "c", "", "new body")
	cmd.Flags().StringVarP(&image, "image", "i", "", "new image URL or local file")
	return cmd
}

func (r *root) newPostsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a post and its comments",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, app *App, args []string) error {
			if _, err := app.requireSession(); err != nil {
				return err
			}
			id, err := parseIDArg(args[0], "post id")
			if err != nil {
				return err
			}
			if err := app.API.DeletePost(ctx, id); err != nil {
				return err
			}
			app.ok("Deleted post #%d", id)
			return nil
		}),
	}
}

func (r *root) newPostsUpvoteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "upvote [id]",
		Short: "Upvote a post",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, app *App, args []string) error {
			if _, err := app.requireSession(); err != nil {
				return err
			}
			id, err := parseIDArg(args[0], "post id")
			if err != nil {
				return err
			}
			n, err := app.API.Upvote(ctx, id)
			if err != nil {
				return err
			}
			app.ok("Post #%d now has %d upvotes", id, n)
			return nil
		}),
	}
}
