package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/emilythestrangee/dcplaces/backend/internal/models"
)

func (r *root) newCommentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "comments",
		Aliases: []string{"c"},
		Args:    cobra.NoArgs,
		Short:   "Read and write comments on a post",
	}
	cmd.AddCommand(
		r.newCommentsListCommand(),
		r.newCommentsAddCommand(),
		r.newCommentsEditCommand(),
		r.newCommentsDeleteCommand(),
	)
	return cmd
}

func printComments(out io.Writer, comments []models.Comment) {
	if len(comments) == 0 {
		dimColor.Fprintln(out, "No comments yet")
		return
	}
	for _, c := range comments {
		stamp := c.CreatedAt.Local().Format("2006-01-02 15:04")
		if c.EditedAt != nil {
			stamp += " (edited)"
		}
		dimColor.Fprintf(out, "[%d] %s\n", c.ID, stamp)
		fmt.Fprintf(out, "  %s\n", c.Content)
	}
}

func postAndComment(args []string) (int64, int64, error) {
	postID, err := parseIDArg(args[0], "post id")
	if err != nil {
		return 0, 0, err
	}
	commentID, err := parseIDArg(args[1], "comment id")
	return postID, commentID, err
}

func (r *root) newCommentsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list [post-id]",
		Short: "List a post's comments, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: r.run(func(ctx context.Context, app *App, args []string) error {
			postID, err := parseIDArg(args[0], "post id")
			if err != nil {
				return err
			}
			comments, err := app.API.ListComments(ctx, postID)
			if err != nil {
				return err
			}
			printComments(app.Out, comments)
			return nil
		}),
	}
}

func (r *root) newCommentsAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add [post-id] [text...]",
		Short: "Comment on a post",
		Args:  cobra.MinimumNArgs(2),
		RunE: r.run(func(ctx context.Context, app *App, args []string) error {
			if _, err := app.requireSession(); err != nil {
				return err
			}
			postID, err := parseIDArg(args[0], "post id")
			if err != nil {
				return err
			}
			c, err := app.API.AddComment(ctx, postID, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			app.ok("Added comment %d", c.ID)
			return nil
		}),
	}
}

func (r *root) newCommentsEditCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "edit [post-id] [comment-id] [text...]",
		Short: "Replace a comment's text",
		Args:  cobra.MinimumNArgs(3),
		RunE: r.run(func(ctx context.Context, app *App, args []string) error {
			if _, err := app.requireSession(); err != nil {
				return err
			}
			postID, commentID, err := postAndComment(args)
			if err != nil {
				return err
			}
			if _, err := app.API.EditComment(ctx, postID, commentID, strings.Join(args[2:], " ")); err != nil {
				return err
			}
			app.ok("Edited comment %d", commentID)
			return nil
		}),
	}
}

func (r *root) newCommentsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [post-id] [comment-id]",
		Short: "Delete a comment",
		Args:  cobra.ExactArgs(2),
		RunE: r.run(func(ctx context.Context, app *App, args []string) error {
			if _, err := app.requireSession(); err != nil {
				return err
			}
			postID, commentID, err := postAndComment(args)
			if err != nil {
				return err
			}
			if err := app.API.DeleteComment(ctx, postID, commentID); err != nil {
				return err
			}
			app.ok("Deleted comment %d", commentID)
			return nil
		}),
	}
}
