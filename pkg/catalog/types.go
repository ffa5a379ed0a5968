package catalog

import "time"

// Course is a course listed on the marketing site.
type Course struct {
	ID          string    `mapstructure:"id" json:"id"`
	Title       string    `mapstructure:"title" json:"title"`
	Description string    `mapstructure:"description" json:"description,omitempty"`
	Category    string    `mapstructure:"category" json:"category,omitempty"`
	Level       string    `mapstructure:"level" json:"level,omitempty"`
	Duration    string    `mapstructure:"duration" json:"duration,omitempty"`
	Price       float64   `mapstructure:"price" json:"price"`
	Featured    bool      `mapstructure:"featured" json:"featured"`
	ImageURL    string    `mapstructure:"imageUrl" json:"imageUrl,omitempty"`
	CreatedAt   time.Time `mapstructure:"createdAt" json:"createdAt"`
}

// Event is a workshop, webinar or meetup.
type Event struct {
	ID              string    `mapstructure:"id" json:"id"`
	Title           string    `mapstructure:"title" json:"title"`
	Description     string    `mapstructure:"description" json:"description,omitempty"`
	Location        string    `mapstructure:"location" json:"location,omitempty"`
	RegistrationURL string    `mapstructure:"registrationUrl" json:"registrationUrl,omitempty"`
	ImageURL        string    `mapstructure:"imageUrl" json:"imageUrl,omitempty"`
	Date            time.Time `mapstructure:"date" json:"date"`
}

// Review is a student testimonial.
type Review struct {
	ID        string    `mapstructure:"id" json:"id"`
	Author    string    `mapstructure:"name" json:"name"`
	Course    string    `mapstructure:"course" json:"course,omitempty"`
	Rating    int       `mapstructure:"rating" json:"rating"`
	Content   string    `mapstructure:"content" json:"content"`
	Approved  bool      `mapstructure:"approved" json:"approved"`
	CreatedAt time.Time `mapstructure:"createdAt" json:"createdAt"`
}

// TeamMember is a person shown on the team page.
type TeamMember struct {
	ID       string `mapstructure:"id" json:"id"`
	Name     string `mapstructure:"name" json:"name"`
	Role     string `mapstructure:"role" json:"role"`
	Bio      string `mapstructure:"bio" json:"bio,omitempty"`
	PhotoURL string `mapstructure:"photoUrl" json:"photoUrl,omitempty"`
	LinkedIn string `mapstructure:"linkedin" json:"linkedin,omitempty"`
	Order    int    `mapstructure:"order" json:"order"`
}
