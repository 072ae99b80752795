package library

import (
	"io"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Catalog is a batch of items and patrons to register, as read from a JSON
// catalog file.
type Catalog struct {
	Items   []CatalogItem   `json:"items" validate:"dive"`
	Patrons []CatalogPatron `json:"patrons" validate:"dive"`
}

type CatalogItem struct {
	Kind    Kind   `json:"kind" validate:"required,oneof=book album movie"`
	ID      string `json:"id" validate:"required"`
	Title   string `json:"title" validate:"required"`
	Creator string `json:"creator" validate:"required"`
}

type CatalogPatron struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name" validate:"required"`
}

// DemoCatalog is the sample collection the desk ships with.
func DemoCatalog() Catalog {
	return Catalog{
		Items: []CatalogItem{
			{Kind: KindBook, ID: "1234", Title: "Slaughterhouse Five", Creator: "Vonnegut"},
			{Kind: KindBook, ID: "2345", Title: "Hamlet", Creator: "Shakespeare"},
			{Kind: KindAlbum, ID: "3456", Title: "Gyotaku", Creator: "GO!GO!7188"},
			{Kind: KindAlbum, ID: "4567", Title: "2001", Creator: "Dr. Dre"},
			{Kind: KindMovie, ID: "5678", Title: "The Incredibles", Creator: "Bird"},
			{Kind: KindMovie, ID: "6789", Title: "Jurassic Park", Creator: "Spielberg"},
		},
		Patrons: []CatalogPatron{
			{ID: "abc", Name: "Felicity"},
			{ID: "bcd", Name: "Ralph"},
			{ID: "cde", Name: "Waldo"},
			{ID: "def", Name: "Emerson"},
		},
	}
}

var catalogValidator = validator.New()

// ReadCatalog decodes and validates a JSON catalog.
func ReadCatalog(r io.Reader) (Catalog, error) {
	var c Catalog
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.NewDecoder(r).Decode(&c); err != nil {
		return Catalog{}, errors.Wrap(err, "decode catalog")
	}
	if err := catalogValidator.Struct(c); err != nil {
		return Catalog{}, errors.Wrap(err, "invalid catalog")
	}
	return c, nil
}

// ImportReport counts what Import did.
type ImportReport struct {
	Added   int
	Skipped []string
}

// Import registers every catalog entry whose ID is not taken yet. Entries
// with a taken ID are reported as skipped, not as errors.
func (lm *LibraryManager) Import(c Catalog) (ImportReport, error) {
	var rep ImportReport
	for _, p := range c.Patrons {
		_, err := lm.AddPatron(p.ID, p.Name)
		switch {
		case errors.Is(err, ErrDuplicateID):
			rep.Skipped = append(rep.Skipped, "patron "+p.ID)
		case err != nil:
			return rep, err
		default:
			rep.Added++
		}
	}
	for _, it := range c.Items {
		_, err := lm.AddItem(it.Kind, it.ID, it.Title, it.Creator)
		switch {
		case errors.Is(err, ErrDuplicateID):
			rep.Skipped = append(rep.Skipped, "item "+it.ID)
		case err != nil:
			return rep, err
		default:
			rep.Added++
		}
	}
	lm.log.Info("catalog imported", zap.Int("added", rep.Added), zap.Int("skipped", len(rep.Skipped)))
	return rep, nil
}
