package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sakif/refactorium/internal/apperror"
	"github.com/sakif/refactorium/internal/model"
	"github.com/sakif/refactorium/internal/repository"
)

// CatalogService loads smell definitions into the catalog table.
type CatalogService struct {
	catalog repository.CatalogRepository
	logger  *slog.Logger
}

func NewCatalogService(catalog repository.CatalogRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{catalog: catalog, logger: logger}
}

// catalogFile is the layout of a seed file:
//
//	smells:
//	  - id: long-method
//	    title: Long Method
//	    category: bloaters
//	    ...
type catalogFile struct {
	Smells []model.Smell `yaml:"smells"`
}

// ImportYAML validates every smell in r and upserts them by ID.
// Nothing is written when any entry is invalid.
func (s *CatalogService) ImportYAML(ctx context.Context, r io.Reader) (int, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var file catalogFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, fmt.Errorf("service/catalog: decoding seed file: %w", err)
	}

	seen := make(map[string]bool, len(file.Smells))
	for i := range file.Smells {
		sm := &file.Smells[i]
		sm.ID = strings.TrimSpace(sm.ID)
		sm.Title = strings.TrimSpace(sm.Title)

		switch {
		case sm.ID == "":
			return 0, apperror.ValidationFailed("id", fmt.Sprintf("smell #%d has no id", i+1))
		case sm.Title == "":
			return 0, apperror.ValidationFailed("title", fmt.Sprintf("smell %s has no title", sm.ID))
		case seen[sm.ID]:
			return 0, apperror.ValidationFailed("id", fmt.Sprintf("smell %s is listed twice", sm.ID))
		}
		seen[sm.ID] = true
		if sm.Tags == nil {
			sm.Tags = model.Tags{}
		}
	}

	for i := range file.Smells {
		if err := s.catalog.UpsertSmell(ctx, &file.Smells[i]); err != nil {
			return i, fmt.Errorf("service/catalog: storing smell %s: %w", file.Smells[i].ID, err)
		}
	}

	s.logger.Info("catalog imported", slog.Int("smells", len(file.Smells)))
	return len(file.Smells), nil
}
