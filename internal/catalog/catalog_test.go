package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_LabelLookupIsTotalAndReversible(t *testing.T) {
	for _, locale := range []Locale{LocalePT, LocaleIdentity} {
		t.Run(string(locale), func(t *testing.T) {
			c, err := Load(locale)
			require.NoError(t, err)
			require.Equal(t, 97, c.Len())

			for _, id := range c.IDs() {
				label := c.Label(id)
				assert.NotEmpty(t, label, "id %s", id)

				back, ok := c.ID(label)
				assert.True(t, ok, "label %q", label)
				assert.Equal(t, id, back)
			}
		})
	}
}

func TestLoad_IdentityLocaleUsesIDs(t *testing.T) {
	c := MustLoad(LocaleIdentity)
	assert.Equal(t, "restaurant", c.Label("restaurant"))
	assert.Equal(t, "car_repair", c.Label("car_repair"))
}

func TestLoad_PortugueseLabels(t *testing.T) {
	c := MustLoad(LocalePT)
	assert.Equal(t, "Restaurante", c.Label("restaurant"))
	assert.Equal(t, "Oficina mecânica", c.Label("car_repair"))

	id, ok := c.ID("Padaria")
	assert.True(t, ok)
	assert.Equal(t, "bakery", id)
}

func TestLoad_KeepsTableOrder(t *testing.T) {
	c := MustLoad(LocalePT)
	ids := c.IDs()
	assert.Equal(t, "accounting", ids[0])
	assert.Equal(t, "zoo", ids[len(ids)-1])
	assert.Len(t, c.Categories(), len(ids))
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name       string
		categories []Category
	}{
		{"empty id", []Category{{ID: "", Label: "x"}}},
		{"empty label", []Category{{ID: "x", Label: " "}}},
		{"duplicate id", []Category{{ID: "a", Label: "A"}, {ID: "a", Label: "B"}}},
		{"duplicate label", []Category{{ID: "a", Label: "A"}, {ID: "b", Label: "A"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.categories)
			assert.Error(t, err)
		})
	}
}

func TestCategories_ReturnsCopy(t *testing.T) {
	c, err := New([]Category{{ID: "a", Label: "A"}})
	require.NoError(t, err)

	cats := c.Categories()
	cats[0].Label = "changed"
	assert.Equal(t, "A", c.Label("a"))
}

func TestLabel_UnknownIDReturnedUnchanged(t *testing.T) {
	c := MustLoad(LocalePT)
	assert.Equal(t, "spaceport", c.Label("spaceport"))
	assert.False(t, c.Has("spaceport"))
}

func TestResolve(t *testing.T) {
	c := MustLoad(LocalePT)

	ids, err := c.Resolve([]string{"restaurant", " padaria ", "Restaurante", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"restaurant", "bakery"}, ids)

	all, err := c.Resolve([]string{"all"})
	require.NoError(t, err)
	assert.Len(t, all, c.Len())

	_, err = c.Resolve([]string{"spaceport"})
	assert.Error(t, err)

	none, err := c.Resolve(nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestParseLocale(t *testing.T) {
	tests := map[string]Locale{
		"":         LocalePT,
		"pt":       LocalePT,
		"PT-BR":    LocalePT,
		"identity": LocaleIdentity,
		"id":       LocaleIdentity,
	}
	for in, want := range tests {
		got, err := ParseLocale(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLocale("fi")
	assert.Error(t, err)
}
