package memory

import (
	"testing"

	"athlos/fitness-tracker/internal/repository/repotest"
)

func TestConformance(t *testing.T) {
	repotest.Run(t, NewRepositories(NewStore()))
}
