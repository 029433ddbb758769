package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/bloglist/internal/auth"
	"github.com/robalobadob/bloglist/internal/config"
	"github.com/robalobadob/bloglist/internal/model"
	"github.com/robalobadob/bloglist/internal/store"
)

type seedOptions struct {
	Users    int
	Posts    int
	Password string
}

func newSeedCmd(cfg *config.Config) *cobra.Command {
	opts := seedOptions{Users: 3, Posts: 6, Password: "password"}
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the store with sample users and posts",
		Long: `Create users user1..N and distribute M posts across them round-robin.
Existing users are reused, so running seed twice only adds posts.

Examples:
  bloglist seed
  bloglist seed --users 10 --posts 50 --password hunter2`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := openStore(ctx, *cfg)
			if err != nil {
				return err
			}
			defer st.Close(context.Background())

			users, posts, err := seed(ctx, st, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d users, %d posts\n", users, posts)
			return nil
		},
	}
	cmd.Flags().IntVar(&opts.Users, "users", opts.Users, "number of users")
	cmd.Flags().IntVar(&opts.Posts, "posts", opts.Posts, "number of posts")
	cmd.Flags().StringVar(&opts.Password, "password", opts.Password, "password for every seeded user")
	return cmd
}

// seed creates the sample data and reports how many users and posts it
// touched. Posts are linked into their owner's post list.
func seed(ctx context.Context, st store.Store, opts seedOptions) (int, int, error) {
	if opts.Users < 1 {
		return 0, 0, errors.New("--users must be at least 1")
	}
	if len(opts.Password) < auth.MinPasswordLength {
		return 0, 0, fmt.Errorf("--password must be at least %d characters", auth.MinPasswordLength)
	}
	hash, err := auth.HashPassword(opts.Password)
	if err != nil {
		return 0, 0, err
	}

	owners := make([]model.User, 0, opts.Users)
	for i := 1; i <= opts.Users; i++ {
		u := model.User{Username: fmt.Sprintf("user%d", i), Name: fmt.Sprintf("User %d", i), PasswordHash: hash}
		err := st.CreateUser(ctx, &u)
		if errors.Is(err, store.ErrDuplicateUsername) {
			u, err = st.FindUserByUsername(ctx, u.Username)
		}
		if err != nil {
			return 0, 0, fmt.Errorf("seed user %d: %w", i, err)
		}
		owners = append(owners, u)
	}

	for i := 0; i < opts.Posts; i++ {
		owner := owners[i%len(owners)]
		p := model.Post{
			Title:  fmt.Sprintf("Sample post %d", i+1),
			Author: owner.Name,
			URL:    fmt.Sprintf("https://example.com/posts/%d", i+1),
			Likes:  i % 5,
			UserID: owner.ID,
		}
		if err := st.CreatePost(ctx, &p); err != nil {
			return 0, 0, fmt.Errorf("seed post %d: %w", i+1, err)
		}
		if err := st.AddUserPost(ctx, owner.ID, p.ID); err != nil {
			return 0, 0, fmt.Errorf("link post %d: %w", i+1, err)
		}
	}

	log.Info().Int("users", len(owners)).Int("posts", opts.Posts).Msg("seed complete")
	return len(owners), opts.Posts, nil
}
