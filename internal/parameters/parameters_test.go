package parameters

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
	"time"
)

func TestParams(t *testing.T) {
	params := NewFromConfigString("max_depth=3,max_time=250ms,entropy,temperature=0.5,qtable=a=b.json")
	assert.Len(t, params, 5)

	depth, err := PopParamOr(params, "max_depth", 4)
	require.NoError(t, err)
	assert.Equal(t, 3, depth)

	maxTime, err := PopParamOr(params, "max_time", time.Duration(0))
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, maxTime)

	entropy, err := PopParamOr(params, "entropy", false)
	require.NoError(t, err)
	assert.True(t, entropy)

	temperature, err := GetParamOr(params, "temperature", float32(1))
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), temperature)

	fileName, err := PopParamOr(params, "qtable", "")
	require.NoError(t, err)
	assert.Equal(t, "a=b.json", fileName)

	missing, err := PopParamOr(params, "alpha", 0.1)
	require.NoError(t, err)
	assert.Equal(t, 0.1, missing)

	require.Error(t, Unknown(params))
	assert.Contains(t, Unknown(params).Error(), "temperature")
	delete(params, "temperature")
	assert.NoError(t, Unknown(params))

	// Parsing errors.
	params = NewFromConfigString("max_time=3 parsecs,entropy=maybe,max_depth=x")
	_, err = GetParamOr(params, "max_time", time.Second)
	assert.Error(t, err)
	_, err = GetParamOr(params, "entropy", false)
	assert.Error(t, err)
	_, err = GetParamOr(params, "max_depth", 0)
	assert.Error(t, err)

	// Empty configurations have no parameters.
	assert.Empty(t, NewFromConfigString(""))
	assert.Empty(t, NewFromConfigString(" , "))
}
