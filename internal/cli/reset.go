package cli

import (
	"bufio"
	"strings"
)

type ResetCmd struct {
	Yes bool `short:"y" help:"Skip the confirmation prompt."`
}

func (c *ResetCmd) Run(ctx *Context) error {
	e, err := ctx.Engine()
	if err != nil {
		return err
	}

	if !c.Yes {
		ctx.println(warningStyle.Render("This deletes every record for every owner in " + ctx.Store.GetConfigPath() + "."))
		if !confirm(ctx, "Continue? [y/N]: ") {
			ctx.println("Reset cancelled.")
			return nil
		}
	}

	ctx.PerformAutomaticBackup()
	if err := e.Reset(ctx.Context()); err != nil {
		return err
	}
	ctx.println("✓ All collections cleared")
	return nil
}

func confirm(ctx *Context, prompt string) bool {
	ctx.printf("%s", prompt)
	response, err := bufio.NewReader(ctx.In).ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
