// Package categories holds the static catalogue of listing categories.
package categories

import "slices"

// Type separates physical goods from services.
type Type string

const (
	TypeProduct Type = "product"
	TypeService Type = "service"
)

// Valid reports whether t is a known category type.
func (t Type) Valid() bool {
	return t == TypeProduct || t == TypeService
}

// Category is an entry of the catalogue.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	IconName string `json:"iconName"`
	Type     Type   `json:"type"`
}

// Unknown stands in for a category id that is not in the catalogue.
var Unknown = Category{
	ID:       "unknown",
	Name:     "Desconhecida",
	Slug:     "unknown",
	IconName: "HelpCircle",
	Type:     TypeProduct,
}

var catalogue = []Category{
	{ID: "tecnologia", Name: "Tecnologia", Slug: "tecnologia", IconName: "Laptop", Type: TypeProduct},
	{ID: "celulares", Name: "Celulares", Slug: "celulares", IconName: "Smartphone", Type: TypeProduct},
	{ID: "moveis-e-eletro", Name: "Móveis & Eletro", Slug: "moveis-e-eletro", IconName: "Sofa", Type: TypeProduct},
	{ID: "auto-pecas", Name: "Auto Peças", Slug: "auto-pecas", IconName: "Cog", Type: TypeProduct},
	{ID: "alugueis", Name: "Aluguéis", Slug: "alugueis", IconName: "KeyRound", Type: TypeProduct},
	{ID: "livros", Name: "Livros", Slug: "livros", IconName: "Book", Type: TypeProduct},
	{ID: "moda", Name: "Moda", Slug: "moda", IconName: "Shirt", Type: TypeProduct},
	{ID: "games", Name: "Games", Slug: "games", IconName: "Gamepad", Type: TypeProduct},
	{ID: "alimentos", Name: "Alimentos", Slug: "alimentos", IconName: "Utensils", Type: TypeProduct},
	{ID: "infantil", Name: "Infantil", Slug: "infantil", IconName: "Baby", Type: TypeProduct},

	{ID: "reparos", Name: "Reparos", Slug: "reparos", IconName: "Wrench", Type: TypeService},
	{ID: "jardinagem", Name: "Jardinagem", Slug: "jardinagem", IconName: "Scissors", Type: TypeService},
	{ID: "pet-care", Name: "Pet Care", Slug: "pet-care", IconName: "Dog", Type: TypeService},
	{ID: "reformas", Name: "Reformas", Slug: "reformas", IconName: "Paintbrush", Type: TypeService},
	{ID: "mecanica", Name: "Mecânica", Slug: "mecanica", IconName: "Car", Type: TypeService},
	{ID: "ti", Name: "TI", Slug: "ti", IconName: "Laptop2", Type: TypeService},
	{ID: "aulas", Name: "Aulas", Slug: "aulas", IconName: "GraduationCap", Type: TypeService},
	{ID: "estetica", Name: "Estética", Slug: "estetica", IconName: "Sparkles", Type: TypeService},
	{ID: "fitness", Name: "Fitness", Slug: "fitness", IconName: "Dumbbell", Type: TypeService},
	{ID: "procura-se", Name: "Procura-se", Slug: "procura-se", IconName: "Search", Type: TypeService},
	{ID: "denuncias", Name: "Denúncias", Slug: "denuncias", IconName: "ShieldAlert", Type: TypeService},
}

// All returns a copy of the full catalogue, products first.
func All() []Category {
	return slices.Clone(catalogue)
}

// ByType returns the categories of type t in catalogue order.
func ByType(t Type) []Category {
	out := make([]Category, 0, len(catalogue))
	for _, c := range catalogue {
		if c.Type == t {
			out = append(out, c)
		}
	}
	return out
}

// Find returns the category with the given id.
func Find(id string) (Category, bool) {
	i := slices.IndexFunc(catalogue, func(c Category) bool { return c.ID == id })
	if i < 0 {
		return Category{}, false
	}
	return catalogue[i], true
}

// Lookup returns the category with the given id, or Unknown.
func Lookup(id string) Category {
	if c, ok := Find(id); ok {
		return c
	}
	return Unknown
}
