package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"

	"github.com/youta-t/flarc"

	subauto "github.com/vmfleet/vmfleet/cmd/fleet/subcommands/auto"
	"github.com/vmfleet/vmfleet/cmd/fleet/subcommands/common"
	sublist "github.com/vmfleet/vmfleet/cmd/fleet/subcommands/list"
	"github.com/vmfleet/vmfleet/cmd/fleet/subcommands/logger"
	sublogout "github.com/vmfleet/vmfleet/cmd/fleet/subcommands/logout"
	subreport "github.com/vmfleet/vmfleet/cmd/fleet/subcommands/report"
	subupdate "github.com/vmfleet/vmfleet/cmd/fleet/subcommands/update"
	subver "github.com/vmfleet/vmfleet/cmd/fleet/subcommands/version"
	"github.com/vmfleet/vmfleet/pkg/utils/try"
)

func main() {
	name := path.Base(os.Args[0])
	logger := logger.Default()
	logger.SetPrefix(fmt.Sprintf("[%s] ", name))

	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill,
	)
	defer cancel()

	cf := common.DefaultCommonFlags()
	report := try.To(subreport.New()).OrFatal(logger)
	update := try.To(subupdate.New()).OrFatal(logger)
	list := try.To(sublist.New()).OrFatal(logger)
	logout := try.To(sublogout.New()).OrFatal(logger)
	auto := try.To(subauto.New()).OrFatal(logger)
	version := try.To(subver.New()).OrFatal(logger)

	fleet := try.To(
		flarc.NewCommandGroup(
			"vmfleet commandline interface",
			cf,
			flarc.WithSubcommand("report", report),
			flarc.WithSubcommand("update", update),
			flarc.WithSubcommand("list", list),
			flarc.WithSubcommand("logout", logout),
			flarc.WithSubcommand("auto", auto),
			flarc.WithSubcommand("version", version),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, fleet, flarc.WithHelp(true)))
}
