package service

import (
	"context"
	"time"

	"github.com/daordonez11/noreinventeslarueda/internal/domain/model"
	"github.com/daordonez11/noreinventeslarueda/pkg/logger"
)

// seedCatalog loads a small development data set when the catalog is empty.
func (s *Service) seedCatalog(ctx context.Context) error {
	count, err := s.catalog.CountLibraries(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		s.logger.Info(ctx, "catalog already populated; skipping seed",
			logger.Int("libraries", count))
		return nil
	}

	categories := []model.Category{
		{
			Slug:          "frontend",
			NameES:        "Frontend",
			NameEN:        "Frontend",
			DescriptionES: "Librerías y frameworks para desarrollo web del lado del cliente",
			DescriptionEN: "Libraries and frameworks for client-side web development",
			DisplayOrder:  1,
		},
		{
			Slug:          "backend",
			NameES:        "Backend",
			NameEN:        "Backend",
			DescriptionES: "Frameworks y herramientas para desarrollo web del lado del servidor",
			DescriptionEN: "Frameworks and tools for server-side web development",
			DisplayOrder:  2,
		},
		{
			Slug:          "databases",
			NameES:        "Bases de Datos",
			NameEN:        "Databases",
			DescriptionES: "Sistemas de gestión de bases de datos y ORMs",
			DescriptionEN: "Database management systems and ORMs",
			DisplayOrder:  3,
		},
		{
			Slug:          "testing",
			NameES:        "Testing",
			NameEN:        "Testing",
			DescriptionES: "Frameworks y librerías para testing y QA",
			DescriptionEN: "Frameworks and libraries for testing and QA",
			DisplayOrder:  4,
		},
	}

	slugToID := make(map[string]string, len(categories))
	for _, cat := range categories {
		created, err := s.catalog.UpsertCategory(ctx, cat)
		if err != nil {
			return err
		}
		slugToID[created.Slug] = created.ID
	}

	recent := time.Now().AddDate(0, 0, -7)
	older := time.Now().AddDate(0, -8, 0)
	libraries := []model.Library{
		{
			Name:           "react",
			CategoryID:     slugToID["frontend"],
			DescriptionES:  "Biblioteca para construir interfaces de usuario",
			DescriptionEN:  "A library for building user interfaces",
			GithubURL:      "https://github.com/facebook/react",
			Language:       "JavaScript",
			Stars:          230_000,
			Forks:          47_000,
			LastCommitDate: &recent,
		},
		{
			Name:           "svelte",
			CategoryID:     slugToID["frontend"],
			DescriptionES:  "Componentes web compilados, sin runtime",
			DescriptionEN:  "Cybernetically enhanced web apps",
			GithubURL:      "https://github.com/sveltejs/svelte",
			Language:       "JavaScript",
			Stars:          80_000,
			Forks:          4_300,
			LastCommitDate: &recent,
		},
		{
			Name:           "gin",
			CategoryID:     slugToID["backend"],
			DescriptionES:  "Framework web HTTP para Go",
			DescriptionEN:  "HTTP web framework written in Go",
			GithubURL:      "https://github.com/gin-gonic/gin",
			Language:       "Go",
			Stars:          80_000,
			Forks:          8_100,
			LastCommitDate: &recent,
		},
		{
			Name:           "prisma",
			CategoryID:     slugToID["databases"],
			DescriptionES:  "ORM de próxima generación para Node.js y TypeScript",
			DescriptionEN:  "Next-generation ORM for Node.js and TypeScript",
			GithubURL:      "https://github.com/prisma/prisma",
			Language:       "TypeScript",
			Stars:          40_000,
			Forks:          1_600,
			LastCommitDate: &recent,
		},
		{
			Name:           "mocha",
			CategoryID:     slugToID["testing"],
			DescriptionES:  "Framework de pruebas para JavaScript",
			DescriptionEN:  "Simple, flexible, fun JavaScript test framework",
			GithubURL:      "https://github.com/mochajs/mocha",
			Language:       "JavaScript",
			Stars:          22_000,
			Forks:          3_000,
			LastCommitDate: &older,
		},
	}
	for _, lib := range libraries {
		if _, err := s.catalog.UpsertLibrary(ctx, lib); err != nil {
			return err
		}
	}

	s.logger.Info(ctx, "seeded development catalog",
		logger.Int("categories", len(categories)),
		logger.Int("libraries", len(libraries)),
	)
	return nil
}
