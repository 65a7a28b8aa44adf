package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestColumnPages(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 0}}, columnPages(0, 12))
	assert.Equal(t, [][2]int{{0, 5}}, columnPages(5, 12))
	assert.Equal(t, [][2]int{{0, 12}}, columnPages(12, 12))
	assert.Equal(t, [][2]int{{0, 12}, {12, 24}, {24, 30}}, columnPages(30, 12))
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, columnPages(2, 0))
}

// Property: pages cover every player exactly once, in order, none wider than perPage.
func TestPropertyColumnPagesCoverPlayers(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 200).Draw(rt, "players")
		perPage := rapid.IntRange(1, 20).Draw(rt, "per_page")
		next := 0
		for _, p := range columnPages(n, perPage) {
			assert.Equal(rt, next, p[0])
			assert.LessOrEqual(rt, p[1]-p[0], perPage)
			next = p[1]
		}
		assert.Equal(rt, n, next)
	})
}
