package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCollections(t *testing.T) {
	defs := Collections()
	require.Len(t, defs, 3)

	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name)
		assert.NotEmpty(t, def.Indexes, def.Name)
		assert.Contains(t, def.Validator, "$jsonSchema", def.Name)
	}
	assert.ElementsMatch(t, []string{"Tours", "Bookings", "Reviews"}, names)
}

func TestReviewsIndexes_UniquePerUserAndTour(t *testing.T) {
	var found bool
	for _, idx := range ReviewsIndexes {
		keys, ok := idx.Keys.(bson.D)
		require.True(t, ok)
		if len(keys) != 2 || keys[0].Key != "user_id" || keys[1].Key != "tour_id" {
			continue
		}
		require.NotNil(t, idx.Options)
		require.NotNil(t, idx.Options.Unique)
		assert.True(t, *idx.Options.Unique)
		found = true
	}
	assert.True(t, found)
}
