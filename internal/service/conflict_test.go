package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/models"
)

func section(id, days, slot string) models.Section {
	return models.Section{ID: id, CourseCode: "CSE" + id, Title: "Course " + id, Days: days, TimeSlot: slot}
}

func TestFindConflict(t *testing.T) {
	t.Run("same days same slot conflicts", func(t *testing.T) {
		enrolled := []models.Section{section("1", "TR", "10:00 AM")}
		got := FindConflict(section("2", "TR", "10:00 AM"), enrolled)
		require.NotNil(t, got)
		assert.Equal(t, "1", got.ID)
	})

	t.Run("single shared day is enough", func(t *testing.T) {
		enrolled := []models.Section{section("1", "MWF", "8:30 AM")}
		got := FindConflict(section("2", "FR", "8:30 AM"), enrolled)
		require.NotNil(t, got)
	})

	t.Run("same days different slot does not conflict", func(t *testing.T) {
		enrolled := []models.Section{section("1", "TR", "10:00 AM")}
		assert.Nil(t, FindConflict(section("2", "TR", "11:30 AM"), enrolled))
	})

	t.Run("same slot disjoint days does not conflict", func(t *testing.T) {
		enrolled := []models.Section{section("1", "MWF", "10:00 AM")}
		assert.Nil(t, FindConflict(section("2", "TR", "10:00 AM"), enrolled))
	})

	t.Run("no enrolled sections", func(t *testing.T) {
		assert.Nil(t, FindConflict(section("2", "TR", "10:00 AM"), nil))
	})

	t.Run("first conflicting section wins", func(t *testing.T) {
		enrolled := []models.Section{
			section("1", "M", "2:00 PM"),
			section("2", "W", "2:00 PM"),
			section("3", "MW", "2:00 PM"),
		}
		got := FindConflict(section("4", "W", "2:00 PM"), enrolled)
		require.NotNil(t, got)
		assert.Equal(t, "2", got.ID)
	})

	t.Run("unparseable day codes never conflict", func(t *testing.T) {
		enrolled := []models.Section{section("1", "??", "10:00 AM")}
		assert.Nil(t, FindConflict(section("2", "TR", "10:00 AM"), enrolled))
	})
}
