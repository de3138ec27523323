package cli

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/samvad-hq/samvad-catalog-client/internal/domain"
	"github.com/samvad-hq/samvad-catalog-client/internal/resource"
	"github.com/samvad-hq/samvad-catalog-client/pkg/endpoints"
)

func newPostsCommand(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "posts",
		Aliases: []string{"post"},
		Short:   "Read and edit posts",
	}
	cmd.AddCommand(newPostsListCommand(opts))
	cmd.AddCommand(newPostsCreateCommand(opts))
	cmd.AddCommand(newPostsUpdateCommand(opts))
	cmd.AddCommand(newPostsDeleteCommand(opts))
	return cmd
}

func (o *options) postService() (*resource.PostService, error) {
	t, err := o.resolve(endpoints.KindPosts)
	if err != nil {
		return nil, err
	}
	return resource.NewPostService(t.api, t.url, t.params), nil
}

func newPostsListCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := opts.postService()
			if err != nil {
				return err
			}
			posts, err := loadOnce[domain.Post](cmd.Context(), "posts", svc, opts.log)
			if err != nil {
				return err
			}

			if len(posts) == 0 && opts.output == outputTable {
				fmt.Fprintln(opts.out, "No posts found")
				return nil
			}
			return render(opts.out, opts.output, posts, func(table *tablewriter.Table) {
				table.Header("ID", "User", "Title")
				for _, p := range posts {
					_ = table.Append(strconv.Itoa(p.ID), strconv.Itoa(p.UserID), p.Title)
				}
			})
		},
	}
}

func newPostsCreateCommand(opts *options) *cobra.Command {
	var post domain.Post

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if post.Title == "" {
				return fmt.Errorf("post title is required")
			}
			svc, err := opts.postService()
			if err != nil {
				return err
			}
			if err := waitDone(cmd.Context(), func(done func(error)) {
				svc.CreatePost(cmd.Context(), post, done)
			}); err != nil {
				return fmt.Errorf("failed to create post: %w", err)
			}
			fmt.Fprintf(opts.out, "Created post %q\n", post.Title)
			return nil
		},
	}

	cmd.Flags().IntVar(&post.UserID, "user-id", 0, "author user id")
	cmd.Flags().StringVar(&post.Title, "title", "", "post title")
	cmd.Flags().StringVar(&post.Body, "body", "", "post body")
	return cmd
}

func newPostsUpdateCommand(opts *options) *cobra.Command {
	var post domain.Post

	cmd := &cobra.Command{
		Use:   "update POST_ID",
		Short: "Replace a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePostID(args[0])
			if err != nil {
				return err
			}
			post.ID = id
			svc, err := opts.postService()
			if err != nil {
				return err
			}
			if err := waitDone(cmd.Context(), func(done func(error)) {
				svc.UpdatePost(cmd.Context(), post, done)
			}); err != nil {
				return fmt.Errorf("failed to update post %d: %w", id, err)
			}
			fmt.Fprintf(opts.out, "Updated post %d\n", id)
			return nil
		},
	}

	cmd.Flags().IntVar(&post.UserID, "user-id", 0, "author user id")
	cmd.Flags().StringVar(&post.Title, "title", "", "post title")
	cmd.Flags().StringVar(&post.Body, "body", "", "post body")
	return cmd
}

func newPostsDeleteCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete POST_ID",
		Short: "Delete a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePostID(args[0])
			if err != nil {
				return err
			}
			svc, err := opts.postService()
			if err != nil {
				return err
			}
			if err := waitDone(cmd.Context(), func(done func(error)) {
				svc.DeletePost(cmd.Context(), id, done)
			}); err != nil {
				return fmt.Errorf("failed to delete post %d: %w", id, err)
			}
			fmt.Fprintf(opts.out, "Deleted post %d\n", id)
			return nil
		},
	}
}

func parsePostID(raw string) (int, error) {
	id, err := cast.ToIntE(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid post id %q", raw)
	}
	return id, nil
}
