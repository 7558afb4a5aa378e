// Package seed fills an empty exercise library.
package seed

import (
	"context"
	"errors"
	"fmt"

	"athlos/fitness-tracker/internal/repository"

	log "github.com/sirupsen/logrus"
)

// SeedExercises inserts every default exercise whose name is not in the
// library yet. It returns how many were added and is safe to run repeatedly.
func SeedExercises(ctx context.Context, repo repository.ExerciseRepository) (int, error) {
	added := 0
	for _, e := range Exercises {
		_, err := repo.GetByName(ctx, e.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return added, fmt.Errorf("look up %q: %w", e.Name, err)
		}

		exercise := e
		if _, err := repo.Create(ctx, &exercise); err != nil {
			// Another instance seeded it first.
			if errors.Is(err, repository.ErrDuplicate) {
				continue
			}
			return added, fmt.Errorf("create %q: %w", e.Name, err)
		}
		added++
	}
	if added > 0 {
		log.Infof("seeded %d exercises", added)
	}
	return added, nil
}
