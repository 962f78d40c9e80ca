package users

import "context"

// System defines the public contract for user operations.
type System interface {
	Find(ctx context.Context, id string) (*User, error)
	Upsert(ctx context.Context, id string, cmd ProfileCommand) (*User, error)

	// Author never fails; lookups that error yield Placeholder(id).
	Author(ctx context.Context, id string) Author
	// Authors resolves every id in one query, filling misses with placeholders.
	Authors(ctx context.Context, ids []string) map[string]Author
}
