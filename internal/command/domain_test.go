package command

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/joeycumines/goap/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDomainCommand_JSON(t *testing.T) {
	t.Parallel()

	stdout, _, err := run(t, NewDomainCommand(config.NewConfig()), "--format", "json")
	require.NoError(t, err)

	var cat catalogue
	require.NoError(t, json.Unmarshal([]byte(stdout), &cat))

	assert.Equal(t, "bakery", cat.Domain)
	assert.True(t, cat.Sorted)
	assert.Equal(t, []catalogueEntry{
		{ID: "GET_COCOA", Cost: 1, Effect: "HAS_COCOA=true"},
		{ID: "MAKE_CHOCOLATE", Cost: 2, Effect: "HAS_CHOCOLATE=true", Preconditions: []string{"HAS_COCOA=true"}},
		{ID: "MAKE_ICING", Cost: 2, Effect: "HAS_ICING=true", Preconditions: []string{"HAS_CHOCOLATE=true"}},
		{ID: "BAKE_CAKE", Cost: 3, Effect: "HAS_CAKE=true",
			Preconditions: []string{"HAS_ICING=true", "HAS_CHOCOLATE=true", "HAS_COCOA=true"}},
	}, cat.Actions)
	assert.Equal(t, []conditionEntry{
		{ID: "HAS_CAKE", Resolver: true, Achievers: []string{"BAKE_CAKE"}},
		{ID: "HAS_CHOCOLATE", Resolver: true, Achievers: []string{"MAKE_CHOCOLATE"}},
		{ID: "HAS_COCOA", Resolver: true, Achievers: []string{"GET_COCOA"}},
		{ID: "HAS_ICING", Resolver: true, Achievers: []string{"MAKE_ICING"}},
	}, cat.Conditions)
}

func TestDomainCommand_YAMLMatchesJSON(t *testing.T) {
	t.Parallel()

	jsonOut, _, err := run(t, NewDomainCommand(config.NewConfig()), "--format=json")
	require.NoError(t, err)
	yamlOut, _, err := run(t, NewDomainCommand(config.NewConfig()), "--format=yaml")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(yamlOut, "domain: bakery\n"), yamlOut)

	var fromJSON, fromYAML catalogue
	require.NoError(t, json.Unmarshal([]byte(jsonOut), &fromJSON))
	require.NoError(t, yaml.Unmarshal([]byte(yamlOut), &fromYAML))
	assert.Equal(t, fromJSON, fromYAML)
}

func TestDomainCommand_Text(t *testing.T) {
	t.Parallel()

	stdout, _, err := run(t, NewDomainCommand(config.NewConfig()))
	require.NoError(t, err)

	lines := strings.Split(stdout, "\n")
	require.Equal(t, "Domain: bakery (sorted: true)", lines[0])
	assert.Equal(t, []string{"ACTION", "COST", "EFFECT", "PRECONDITIONS"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"GET_COCOA", "1", "HAS_COCOA=true", "-"}, strings.Fields(lines[3]))
	assert.Equal(t, []string{"BAKE_CAKE", "3", "HAS_CAKE=true", "HAS_ICING=true,", "HAS_CHOCOLATE=true,", "HAS_COCOA=true"},
		strings.Fields(lines[6]))
	assert.Equal(t, []string{"CONDITION", "RESOLVER", "ACHIEVERS"}, strings.Fields(lines[8]))
	assert.Equal(t, []string{"HAS_CAKE", "true", "BAKE_CAKE"}, strings.Fields(lines[9]))
}

func TestDomainCommand_FormatFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.SetCommandOption("domain", "format", "yaml")

	stdout, _, err := run(t, NewDomainCommand(cfg))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "domain: bakery\n"), stdout)

	stdout, _, err = run(t, NewDomainCommand(cfg), "--format", "text")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "Domain: bakery"), "flag wins over config")
}

func TestDomainCommand_Errors(t *testing.T) {
	t.Parallel()

	_, stderr, err := run(t, NewDomainCommand(config.NewConfig()), "--format", "xml")
	require.EqualError(t, err, `unknown format "xml"`)
	assert.Equal(t, "unknown format: xml\n", stderr)

	_, _, err = run(t, NewDomainCommand(config.NewConfig()), "extra")
	require.EqualError(t, err, "unexpected arguments")
}
