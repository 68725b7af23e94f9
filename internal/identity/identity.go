// Package identity correlates observations of the same test across cycles.
package identity

import (
	"fmt"

	"github.com/google/uuid"

	"flaky/internal/domain"
)

// namespace scopes the name based test ids produced by ID
var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("flaky/test-identity"))

// Compute returns the cross cycle identity of an observation
func Compute(obs domain.Observation) domain.TestIdentity {
	return domain.TestIdentity{
		File:  obs.File,
		Suite: obs.Suite,
		Name:  obs.Name,
	}
}

// ID derives a stable textual id for an identity.
// Fields are length prefixed, so no field content can make two tuples collide.
func ID(id domain.TestIdentity) string {
	key := fmt.Sprintf("%d:%s|%d:%s|%d:%s", len(id.File), id.File, len(id.Suite), id.Suite, len(id.Name), id.Name)
	return uuid.NewSHA1(namespace, []byte(key)).String()
}

// Groups buckets observations by identity.
// Identities keep first seen order and buckets keep run order.
// Groups is not safe for concurrent use.
type Groups struct {
	order   []domain.TestIdentity
	buckets map[domain.TestIdentity][]domain.Observation
	total   int
}

// NewGroups creates an empty Groups
func NewGroups() *Groups {
	return &Groups{
		buckets: make(map[domain.TestIdentity][]domain.Observation),
	}
}

// GroupByIdentity buckets every observation by its computed identity in a single pass
func GroupByIdentity(observations []domain.Observation) *Groups {
	g := NewGroups()
	g.Add(observations...)
	return g
}

// Add appends observations to their buckets
func (g *Groups) Add(observations ...domain.Observation) {
	for _, obs := range observations {
		id := Compute(obs)
		bucket, ok := g.buckets[id]
		if !ok {
			g.order = append(g.order, id)
		}
		g.buckets[id] = append(bucket, obs)
		g.total++
	}
}

// Identities returns every identity in first seen order
func (g *Groups) Identities() []domain.TestIdentity {
	out := make([]domain.TestIdentity, len(g.order))
	copy(out, g.order)
	return out
}

// Bucket returns the observations of one identity in run order
func (g *Groups) Bucket(id domain.TestIdentity) []domain.Observation {
	return g.buckets[id]
}

// Len returns the number of distinct identities
func (g *Groups) Len() int {
	return len(g.order)
}

// Total returns the number of observations across all buckets
func (g *Groups) Total() int {
	return g.total
}

// Clone returns an independent copy, used for incremental snapshots
func (g *Groups) Clone() *Groups {
	c := &Groups{
		order:   make([]domain.TestIdentity, len(g.order)),
		buckets: make(map[domain.TestIdentity][]domain.Observation, len(g.buckets)),
		total:   g.total,
	}
	copy(c.order, g.order)
	for id, bucket := range g.buckets {
		c.buckets[id] = append([]domain.Observation(nil), bucket...)
	}
	return c
}
