package models

// Product is a catalog entry. The catalog keys products by a small
// numeric id that is stable across reseeds, not by the Mongo document id.
// Prices are Korean won, so they are whole integers.
type Product struct {
	ID          int    `bson:"id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Slogan      string `bson:"slogan,omitempty" json:"slogan,omitempty"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Price       int64  `bson:"price" json:"price"`
	ImageURL    string `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	Category    string `bson:"category" json:"category"`
}
