// Command lpm is the CLI entrypoint for the package manager core: install,
// update, delete, plus module and repository bookkeeping, per spec.md §6.
// Dispatch style and the uniform exit-101-on-error contract are grounded in
// original_source/lpm/main/src/main.rs's try_or_error! macro.
package main

import (
	"flag"
	"fmt"
	"os"

	"lpm/catalog"
	"lpm/errs"
	"lpm/logging"
	"lpm/paths"
	"lpm/repository"
	"lpm/txn"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(101)
	}

	configPath := os.Getenv("LPM_CONFIG")
	if configPath == "" {
		configPath = "/etc/lpm/lpm.yaml"
	}
	cfg, err := paths.Load(configPath)
	tryOrExit(err)

	store, err := catalog.Open(cfg.CatalogPath)
	tryOrExit(err)
	defer store.Close()

	coord := txn.New(store, cfg.SystemRoot, cfg.ScriptsRoot, cfg.StagingRoot, cfg.KeyringPath)
	coord.Listener = func(e fmt.Stringer) { logging.Info("%s", e.String()) }

	switch os.Args[1] {
	case "install":
		runInstall(coord, store, os.Args[2:])
	case "update":
		runUpdate(coord, os.Args[2:])
	case "delete":
		runDelete(coord, os.Args[2:])
	case "module":
		runModule(store, os.Args[2:])
	case "repository":
		runRepository(store, os.Args[2:])
	default:
		usage()
		os.Exit(101)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: lpm <install|update|delete|module|repository> ...")
}

// tryOrExit maps any non-nil error to the uniform 101 exit code, logging it
// first, in the same fatal-error-then-os.Exit style as main.go's
// try_or_error dispatch, but with the core's own exit code.
func tryOrExit(err error) {
	if err == nil {
		return
	}
	logging.Error("%v", err)
	os.Exit(errs.Code(err))
}

func runInstall(coord *txn.Coordinator, store *catalog.Store, args []string) {
	fs := flag.NewFlagSet("install", flag.ExitOnError)
	repoName := fs.String("repository", "", "resolve the package name against this repository instead of treating the argument as a local file")
	fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: lpm install [-repository name] <path-or-name>")
		os.Exit(101)
	}
	target := fs.Arg(0)

	if *repoName != "" {
		repo, err := store.RepositoryByName(*repoName)
		tryOrExit(err)
		entry, err := repository.Resolve(repo.IndexDBPath, target)
		tryOrExit(err)
		path, err := repository.Fetch(entry, os.TempDir())
		tryOrExit(err)
		target = path
	}

	tryOrExit(coord.Install(target))
}

func runUpdate(coord *txn.Coordinator, args []string) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: lpm update <path>")
		os.Exit(101)
	}
	tryOrExit(coord.Update(fs.Arg(0)))
}

func runDelete(coord *txn.Coordinator, args []string) {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: lpm delete <name>")
		os.Exit(101)
	}
	tryOrExit(coord.Delete(fs.Arg(0)))
}

func runModule(store *catalog.Store, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: lpm module <add|delete|list> ...")
		os.Exit(101)
	}
	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("module add", flag.ExitOnError)
		fs.Parse(args[1:])
		if fs.NArg() != 2 {
			fmt.Fprintln(os.Stderr, "usage: lpm module add <name> <dylib-path>")
			os.Exit(101)
		}
		_, err := store.AddModule(catalog.Module{Name: fs.Arg(0), DylibPath: fs.Arg(1)})
		tryOrExit(err)
	case "delete":
		fs := flag.NewFlagSet("module delete", flag.ExitOnError)
		fs.Parse(args[1:])
		for _, name := range fs.Args() {
			tryOrExit(store.RemoveModule(name))
		}
	case "list":
		mods, err := store.ListModules()
		tryOrExit(err)
		for _, m := range mods {
			fmt.Printf("%s\t%s\n", m.Name, m.DylibPath)
		}
	default:
		fmt.Fprintln(os.Stderr, "usage: lpm module <add|delete|list> ...")
		os.Exit(101)
	}
}

func runRepository(store *catalog.Store, args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "usage: lpm repository <add|delete|list> ...")
		os.Exit(101)
	}
	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("repository add", flag.ExitOnError)
		indexPath := fs.String("index", "", "path to the repository's index database")
		fs.Parse(args[1:])
		if fs.NArg() != 2 {
			fmt.Fprintln(os.Stderr, "usage: lpm repository add -index <index-db-path> <name> <address>")
			os.Exit(101)
		}
		_, err := store.AddRepository(catalog.Repository{
			Name: fs.Arg(0), Address: fs.Arg(1), IndexDBPath: *indexPath, IsActive: true,
		})
		tryOrExit(err)
	case "delete":
		fs := flag.NewFlagSet("repository delete", flag.ExitOnError)
		fs.Parse(args[1:])
		for _, name := range fs.Args() {
			tryOrExit(store.RemoveRepository(name))
		}
	case "list":
		repos, err := store.ListRepositories()
		tryOrExit(err)
		for _, r := range repos {
			fmt.Printf("%s\t%s\t%s\n", r.Name, r.Address, r.IndexDBPath)
		}
	default:
		fmt.Fprintln(os.Stderr, "usage: lpm repository <add|delete|list> ...")
		os.Exit(101)
	}
}
