// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package console

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConsole_PlainWhenNotTerminal(t *testing.T) {
	var out, errOut bytes.Buffer
	c := New(&out, &errOut)

	c.Successf("✓ Generated: %s", "a.pdf")
	c.Failuref("Error reading %s: %s", "b.txt", "boom")
	c.Printf("Found %d cheatsheet(s) to convert.", 2)
	c.Mutedf("skipped: %s", "c.txt")
	c.Warnf("block %d dropped", 3)

	assert.Equal(t,
		"✓ Generated: a.pdf\nError reading b.txt: boom\nFound 2 cheatsheet(s) to convert.\nskipped: c.txt\n",
		out.String())
	assert.Equal(t, "warning: block 3 dropped\n", errOut.String())
}
