// Package fixtures provides test data factories.
//
// Factories write through the service repository interfaces, so the same
// fixtures seed the in-memory, SurrealDB and PostgreSQL stores. Each factory
// method fills in sensible defaults and accepts option functions.
//
// Usage:
//
//	repos := memory.NewRepositories(memory.NewStore())
//	f := fixtures.New(fixtures.Repos{
//	    Users:        repos.Users,
//	    Competitions: repos.Competitions,
//	    Teams:        repos.Teams,
//	    Applications: repos.Applications,
//	}, nil)
//	org := f.CreateOrganizer(t)
//	c := f.CreateCompetition(t, org, fixtures.WithCapacity(8))
package fixtures
