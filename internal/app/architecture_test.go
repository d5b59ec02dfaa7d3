package app_test

import (
	"testing"

	"github.com/mstrYoda/go-arctest/pkg/arctest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mod = `github\.com/Nazarious-ucu/weather-bot`

func TestLayeredArchitecture(t *testing.T) {
	arch, err := arctest.New("../../")
	require.NoError(t, err)

	err = arch.ParsePackages()
	require.NoError(t, err, "failed to parse packages")

	domainLayer, err := arctest.NewLayer("domain", `^`+mod+`/internal/models`)
	require.NoError(t, err)

	serviceLayer, err := arctest.NewLayer("services",
		`^`+mod+`/internal/(reply|services/weather|services/responder|services/metrics|services/logger)`)
	require.NoError(t, err)

	transportLayer, err := arctest.NewLayer("transport", `^`+mod+`/internal/handlers/(telegram|http)`)
	require.NoError(t, err)

	infraLayer, err := arctest.NewLayer("infrastructure", `^`+mod+`/pkg/logger`)
	require.NoError(t, err)

	appLayer, err := arctest.NewLayer("application", `^`+mod+`/internal/(app|config)`)
	require.NoError(t, err)

	layered := arch.NewLayeredArchitecture(domainLayer, serviceLayer, transportLayer, infraLayer, appLayer)

	err = serviceLayer.DependsOnLayer(domainLayer)
	assert.NoError(t, err)

	err = transportLayer.DependsOnLayer(domainLayer)
	assert.NoError(t, err)

	err = transportLayer.DependsOnLayer(serviceLayer)
	assert.NoError(t, err)

	for _, l := range []*arctest.Layer{domainLayer, serviceLayer, transportLayer, infraLayer} {
		err = appLayer.DependsOnLayer(l)
		assert.NoError(t, err)
	}

	violations, err := layered.Check()
	require.NoError(t, err)

	assert.Len(t, violations, 0)

	for _, v := range violations {
		assert.Failf(t, "", "violation: %s", v)
	}
}
