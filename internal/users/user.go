// Package users implements user profiles and the author summaries attached
// to listings.
package users

import "time"

// PlaceholderName is shown for authors whose profile cannot be loaded.
const PlaceholderName = "Usuário iNeed"

// User is a marketplace profile keyed by the authentication subject.
type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PhotoURL    string    `json:"photoUrl,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	Location    string    `json:"location,omitempty"`
	Rating      float64   `json:"rating"`
	ReviewCount int       `json:"reviewCount"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Author is the public summary of a listing's owner.
type Author struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	PhotoURL    string  `json:"photoUrl,omitempty"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"reviewCount"`
}

// Placeholder returns the stand-in author for id.
func Placeholder(id string) Author {
	return Author{ID: id, Name: PlaceholderName}
}

// AuthorOf summarises u.
func AuthorOf(u User) Author {
	return Author{
		ID:          u.ID,
		Name:        u.Name,
		PhotoURL:    u.PhotoURL,
		Rating:      u.Rating,
		ReviewCount: u.ReviewCount,
	}
}

// ProfileCommand carries the editable profile fields.
type ProfileCommand struct {
	Name     string `json:"name"`
	PhotoURL string `json:"photoUrl"`
	Bio      string `json:"bio"`
	Location string `json:"location"`
}
