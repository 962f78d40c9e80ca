package users

import (
	"github.com/JaimeStill/ineed/pkg/query"
	"github.com/JaimeStill/ineed/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "users", "u").
	Project("id", "ID").
	Project("name", "Name").
	Project("photo_url", "PhotoURL").
	Project("bio", "Bio").
	Project("location", "Location").
	Project("rating", "Rating").
	Project("review_count", "ReviewCount").
	Project("created_at", "CreatedAt")

func scanUser(s repository.Scanner) (User, error) {
	var u User
	err := s.Scan(
		&u.ID,
		&u.Name,
		&u.PhotoURL,
		&u.Bio,
		&u.Location,
		&u.Rating,
		&u.ReviewCount,
		&u.CreatedAt,
	)
	return u, err
}
