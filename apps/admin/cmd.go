package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/elimuhub/elimu/core/shop"
	"github.com/elimuhub/elimu/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	usrSvc  user.ServiceInterface
	ledger  shop.PurchaseLedger
	migrate func() error
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -username USERNAME -email EMAIL [-admin] - create or update a user; password is prompted")
	fmt.Println("  cancelpurchase -type tutorial|recorded_lesson -id ID - cancel (void) a recorded purchase")
	fmt.Println("  migrate - run database migrations")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Grant all roles.")

	cancelCmd := flag.NewFlagSet("cancelpurchase", flag.ExitOnError)
	cancelType := cancelCmd.String("type", "", "The purchase's item type.")
	cancelID := cancelCmd.String("id", "", "The purchase's ID.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" && *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		fmt.Print("Enter password:")
		pwd, err := readPasswordFunc(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserUname, *addUserEmail, string(pwd), *addUserAdmin)
	case "cancelpurchase":
		if err := cancelCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *cancelType == "" || *cancelID == "" {
			cancelCmd.Usage()
			return errHelp
		}
		return cli.cancelPurchase(shop.ItemType(*cancelType), *cancelID)
	case "migrate":
		return cli.migrate()
	default:
		cli.printUsage()
		return errHelp
	}
}
