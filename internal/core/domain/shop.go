package domain

type Shop struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Category    string    `json:"category" yaml:"category"`
	Description string    `json:"description" yaml:"description"`
	Rating      float64   `json:"rating" yaml:"rating"`
	ReviewCount int       `json:"review_count" yaml:"review_count"`
	DistanceKm  float64   `json:"distance_km" yaml:"distance_km"`
	Address     string    `json:"address,omitempty" yaml:"address"`
	Phone       string    `json:"phone,omitempty" yaml:"phone"`
	ImageRef    string    `json:"image_ref,omitempty" yaml:"image"`
	Recommended bool      `json:"recommended" yaml:"recommended"`
	Products    []Product `json:"-" yaml:"products"`
}
