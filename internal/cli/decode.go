package cli

import (
	"fmt"
	"strings"

	"github.com/sanchar-ai/hangout-planner/internal/sharecode"
)

// DecodeCmd decodes a share link (or bare token) and prints the plan it
// carries. Works fully offline.
type DecodeCmd struct {
	Link string `arg:"" help:"Share link or token to decode."`
}

func (c *DecodeCmd) Run(appCtx *Context) error {
	token := c.Link
	if i := strings.LastIndex(token, "/plan/"); i >= 0 {
		token = token[i+len("/plan/"):]
	}

	snap, err := sharecode.Decode(token)
	if err != nil {
		return fmt.Errorf("decode link: %w", err)
	}
	fmt.Println(renderSnapshot(snap))
	return nil
}
