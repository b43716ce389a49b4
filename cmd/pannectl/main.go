// pannectl is a small terminal client for the panne API. List commands
// print the local snapshot immediately (marked provisional) and the server
// result when it lands.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"panne/internal/client"
	"panne/internal/snapshot"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: pannectl [-addr URL] <command> [args]

commands:
  register <email> <password> [display name]
  login <email> <password>
  notes
  notebooks
  note create -title T [-content C] [-notebook ID]
  note delete <id>
  note versions <id>
  note revert <note id> <version id>
  notebook create <name> [description]
  notebook delete <id>`)
	os.Exit(2)
}

func main() {
	addr := flag.String("addr", envOr("PANNE_ADDR", "http://localhost:8080"), "panne server address")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
	}

	stateDir, err := stateDir()
	if err != nil {
		fatal(err)
	}
	cache, err := snapshot.NewFileCache(stateDir)
	if err != nil {
		fatal(err)
	}

	c := client.New(*addr, cache)
	ctx := context.Background()

	switch args[0] {
	case "register":
		if len(args) < 3 {
			usage()
		}
		display := strings.Join(args[3:], " ")
		if err := c.Register(ctx, args[1], args[2], display); err != nil {
			fatal(err)
		}
		saveToken(stateDir, c.Token)
		fmt.Println("registered and logged in")

	case "login":
		if len(args) != 3 {
			usage()
		}
		if err := c.Login(ctx, args[1], args[2]); err != nil {
			fatal(err)
		}
		saveToken(stateDir, c.Token)
		fmt.Println("logged in")

	default:
		if err := loadToken(ctx, c, stateDir); err != nil {
			fatal(fmt.Errorf("not logged in: %w", err))
		}
		runCommand(ctx, c, args)
	}
}

func runCommand(ctx context.Context, c *client.Client, args []string) {
	switch args[0] {
	case "notes":
		notes, err := c.ListNotes(ctx, func(cached []client.Note) {
			printNotes(cached, true)
		})
		if err != nil {
			fatal(err)
		}
		printNotes(notes, false)

	case "notebooks":
		notebooks, err := c.ListNotebooks(ctx, func(cached []client.Notebook) {
			printNotebooks(cached, true)
		})
		if err != nil {
			fatal(err)
		}
		printNotebooks(notebooks, false)

	case "note":
		noteCommand(ctx, c, args[1:])

	case "notebook":
		notebookCommand(ctx, c, args[1:])

	default:
		usage()
	}
}

func noteCommand(ctx context.Context, c *client.Client, args []string) {
	if len(args) == 0 {
		usage()
	}
	switch args[0] {
	case "create":
		fs := flag.NewFlagSet("note create", flag.ExitOnError)
		title := fs.String("title", "", "note title")
		content := fs.String("content", "", "note content")
		notebook := fs.Uint64("notebook", 0, "notebook id (0 = default notebook)")
		_ = fs.Parse(args[1:])
		n, err := c.CreateNote(ctx, *title, *content, *notebook)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("created note %d in %q\n", n.ID, n.NotebookName)

	case "delete":
		if len(args) != 2 {
			usage()
		}
		if err := c.DeleteNote(ctx, parseID(args[1])); err != nil {
			fatal(err)
		}
		fmt.Println("deleted")

	case "versions":
		if len(args) != 2 {
			usage()
		}
		versions, err := c.ListVersions(ctx, parseID(args[1]))
		if err != nil {
			fatal(err)
		}
		for _, v := range versions {
			marker := ""
			if v.IsReversion {
				marker = " (reversion)"
			}
			fmt.Printf("%d\t%s\t%s%s\n", v.ID, v.Timestamp.Format("2006-01-02 15:04:05"), v.Title, marker)
		}

	case "revert":
		if len(args) != 3 {
			usage()
		}
		n, err := c.Revert(ctx, parseID(args[1]), parseID(args[2]))
		if err != nil {
			fatal(err)
		}
		fmt.Printf("reverted note %d to %q\n", n.ID, n.Title)

	default:
		usage()
	}
}

func notebookCommand(ctx context.Context, c *client.Client, args []string) {
	if len(args) == 0 {
		usage()
	}
	switch args[0] {
	case "create":
		if len(args) < 2 {
			usage()
		}
		nb, err := c.CreateNotebook(ctx, args[1], strings.Join(args[2:], " "))
		if err != nil {
			fatal(err)
		}
		fmt.Printf("created notebook %d %q\n", nb.ID, nb.Name)

	case "delete":
		if len(args) != 2 {
			usage()
		}
		if err := c.DeleteNotebook(ctx, parseID(args[1])); err != nil {
			fatal(err)
		}
		fmt.Println("deleted")

	default:
		usage()
	}
}

func printNotes(notes []client.Note, provisional bool) {
	if provisional {
		fmt.Println("-- cached --")
	}
	for _, n := range notes {
		fmt.Printf("%d\t%s\t%s\t%s\n", n.ID, n.UpdatedAt.Format("2006-01-02 15:04"), n.NotebookName, n.Title)
	}
}

func printNotebooks(notebooks []client.Notebook, provisional bool) {
	if provisional {
		fmt.Println("-- cached --")
	}
	for _, nb := range notebooks {
		fmt.Printf("%d\t%s\t%d notes\n", nb.ID, nb.Name, nb.NoteCount)
	}
}

func stateDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "pannectl"), nil
}

func saveToken(dir, token string) {
	_ = os.WriteFile(filepath.Join(dir, "token"), []byte(token), 0o600)
}

func loadToken(ctx context.Context, c *client.Client, dir string) error {
	b, err := os.ReadFile(filepath.Join(dir, "token"))
	if err != nil {
		return err
	}
	return c.SetToken(ctx, strings.TrimSpace(string(b)))
}

func parseID(s string) uint64 {
	var id uint64
	if _, err := fmt.Sscanf(s, "%d", &id); err != nil {
		fatal(fmt.Errorf("invalid id %q", s))
	}
	return id
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "pannectl:", err)
	os.Exit(1)
}
