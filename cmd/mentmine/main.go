// Command mentmine serves the marketing site's content API and runs ad-hoc
// client-side queries against the configured document store.
package main

import "github.com/mentneo/mentmine/pkg/cli"

func main() {
	cli.Execute(cli.NewServiceCommand(cli.ServiceCommandOptions{
		Name:        "mentmine",
		Description: "Content query service for the Mentneo marketing site",
		ConfigPath:  "",
	}))
}
