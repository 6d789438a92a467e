// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ids

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStringRoundtrip(t *testing.T) {
	require := require.New(t)

	id := GenerateTestID()
	parsed, err := FromString(id.String())
	require.NoError(err)
	require.Equal(id, parsed)

	_, err = FromString("not-hex")
	require.Error(err)

	_, err = FromString("0011")
	require.Error(err)
}

func TestIsEmpty(t *testing.T) {
	require := require.New(t)

	require.True(Empty.IsEmpty())
	require.False(GenerateTestID().IsEmpty())
}

func TestJSONRendersHex(t *testing.T) {
	require := require.New(t)

	id := GenerateTestID()
	raw, err := json.Marshal(id)
	require.NoError(err)
	require.Equal(`"`+id.String()+`"`, string(raw))

	var back ID
	require.NoError(json.Unmarshal(raw, &back))
	require.Equal(id, back)
}
