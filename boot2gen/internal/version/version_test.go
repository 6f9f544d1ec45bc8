// Copyright 2026 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package version

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommand(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	c := Command()
	c.SetOut(&out)
	c.SetArgs([]string{})
	require.NoError(t, c.Execute())
	require.Equal(t, Full()+"\n", out.String())
	require.Contains(t, Full(), Version)
}
